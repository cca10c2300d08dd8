package intake

import (
	"strings"

	"facility-intake-backend/internal/types"
)

// DefaultMaxAttachmentBytes bounds a single decoded attachment.
const DefaultMaxAttachmentBytes = 5 << 20

// StripDataURI returns the base64 payload of a data URI, or data unchanged when
// it carries no "...base64," prefix.
func StripDataURI(data string) string {
	if i := strings.Index(data, "base64,"); i >= 0 {
		return data[i+len("base64,"):]
	}
	return data
}

// PrepareAttachments strips data-URI prefixes and leaves out files whose decoded
// size exceeds maxBytes. The remaining files are kept even when every file was
// dropped; the submission then proceeds without attachments.
func PrepareAttachments(files []types.Attachment, maxBytes int64) (kept []types.Attachment, dropped []string) {
	kept = make([]types.Attachment, 0, len(files))
	for _, f := range files {
		data := StripDataURI(f.Data)
		if maxBytes > 0 && decodedSize(data) > maxBytes {
			dropped = append(dropped, f.Name)
			continue
		}
		kept = append(kept, types.Attachment{Name: f.Name, Type: f.Type, Data: data})
	}
	return kept, dropped
}

func decodedSize(b64 string) int64 {
	n := len(b64)
	padding := 0
	for i := n - 1; i >= 0 && i >= n-2 && b64[i] == '='; i-- {
		padding++
	}
	return int64(n/4*3 - padding)
}
