package errs

// Code represents an error code
type Code string

const (
	CodeUnknown              Code = "UNKNOWN"                // Unknown error occurred
	CodeInternalError        Code = "INTERNAL_ERROR"         // Internal system error
	CodeValidationFailed     Code = "VALIDATION_FAILED"      // Input validation failed
	CodeInvalidParameter     Code = "INVALID_PARAMETER"      // Invalid parameter provided
	CodeIoError              Code = "IO_ERROR"               // Input/output operation failed
	CodeFileNotFound         Code = "FILE_NOT_FOUND"         // File not found
	CodeNotFound             Code = "NOT_FOUND"              // Resource not found
	CodeAlreadyExists        Code = "ALREADY_EXISTS"         // Resource already exists
	CodeInvalidState         Code = "INVALID_STATE"          // Invalid state
	CodeConfigurationInvalid Code = "CONFIGURATION_INVALID"  // Configuration invalid
	CodeRecipeInvalid        Code = "RECIPE_INVALID"         // Build recipe invalid
	CodeManifestMissing      Code = "MANIFEST_MISSING"       // Dependency manifest missing from context
	CodeImageBuildFailed     Code = "IMAGE_BUILD_FAILED"     // Image build failed
	CodeImagePushFailed      Code = "IMAGE_PUSH_FAILED"      // Image push failed
	CodeCommandFailed        Code = "COMMAND_FAILED"         // External command failed
	CodeDeckInvalid          Code = "DECK_INVALID"           // Deck definition invalid
	CodeDeckGenerationFailed Code = "DECK_GENERATION_FAILED" // Deck file generation failed
	CodeSlideCountMismatch   Code = "SLIDE_COUNT_MISMATCH"   // Timing slides do not match PDF pages
	CodeCompositionFailed    Code = "COMPOSITION_FAILED"     // Video composition failed
	CodeJobFailed            Code = "JOB_FAILED"             // Background job failed
	CodeJobNotReady          Code = "JOB_NOT_READY"          // Background job has no result yet
)
