package runstatus

// Upload stages in the order the orchestrator passes through them.
const (
	ResolvingMetadata = "Resolving metadata"
	RequestingSlot    = "Requesting upload slot"
	UploadingBytes    = "Uploading bytes"
	CompletingUpload  = "Completing upload"
	Done              = "Done"
)

var order = []string{ResolvingMetadata, RequestingSlot, UploadingBytes, CompletingUpload, Done}

// Sequence returns the stages in order.
func Sequence() []string {
	return append([]string(nil), order...)
}
