package errors

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	CodeOK           ErrorCode = "OK"
	CodeUnknown      ErrorCode = "COMMON_000"
	CodeInternal     ErrorCode = "COMMON_001"
	CodeInvalidParam ErrorCode = "COMMON_002"
	CodeNotFound     ErrorCode = "COMMON_003"
	CodeConflict     ErrorCode = "COMMON_004"
	CodeTimeout      ErrorCode = "COMMON_005"
	CodeUnavailable  ErrorCode = "COMMON_006"
	CodeIO           ErrorCode = "COMMON_007"
)

// Calculator error codes.
const (
	CodeNoMolecules      ErrorCode = "CALC_001"
	CodeUnrecognizedTask ErrorCode = "CALC_002"
	CodeShapeMismatch    ErrorCode = "CALC_003"
)

// Weight-store error codes.
const (
	CodeUnknownModel   ErrorCode = "WGT_001"
	CodeWeightCorrupt  ErrorCode = "WGT_002"
	CodeWeightDownload ErrorCode = "WGT_003"
)

// Baseline-tool error codes.
const (
	CodeBaselineFailure ErrorCode = "XTB_001"
	CodeBaselineParse   ErrorCode = "XTB_002"
)

// Molecule I/O error codes.
const (
	CodeMoleculeParse  ErrorCode = "MOL_001"
	CodeMoleculeFormat ErrorCode = "MOL_002"
)

// codeNames maps every code to a short human-readable name used in
// Error() output and metric labels.
var codeNames = map[ErrorCode]string{
	CodeOK:               "ok",
	CodeUnknown:          "unknown",
	CodeInternal:         "internal",
	CodeInvalidParam:     "invalid_param",
	CodeNotFound:         "not_found",
	CodeConflict:         "conflict",
	CodeTimeout:          "timeout",
	CodeUnavailable:      "unavailable",
	CodeIO:               "io",
	CodeNoMolecules:      "no_molecules",
	CodeUnrecognizedTask: "unrecognized_task",
	CodeShapeMismatch:    "shape_mismatch",
	CodeUnknownModel:     "unknown_model",
	CodeWeightCorrupt:    "weight_corrupt",
	CodeWeightDownload:   "weight_download",
	CodeBaselineFailure:  "baseline_failure",
	CodeBaselineParse:    "baseline_parse",
	CodeMoleculeParse:    "molecule_parse",
	CodeMoleculeFormat:   "molecule_format",
}

// Name returns the short lower-case name for the code, or "unknown" for
// codes that are not registered.
func (c ErrorCode) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "unknown"
}
