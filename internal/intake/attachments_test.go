package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"facility-intake-backend/internal/types"
)

func TestStripDataURI(t *testing.T) {
	assert.Equal(t, "AAAA", StripDataURI("data:image/png;base64,AAAA"))
	assert.Equal(t, "JVBERi0=", StripDataURI("data:application/pdf;base64,JVBERi0="))
	assert.Equal(t, "AAAA", StripDataURI("AAAA"))
	assert.Equal(t, "", StripDataURI("data:text/plain;base64,"))
}

func TestPrepareAttachments(t *testing.T) {
	files := []types.Attachment{
		{Name: "small.png", Type: "image/png", Data: "data:image/png;base64,AAAA"},
		{Name: "large.png", Type: "image/png", Data: "data:image/png;base64,AAAAAAAAAAAA"},
		{Name: "raw.txt", Type: "text/plain", Data: "QQ=="},
	}
	kept, dropped := PrepareAttachments(files, 4)
	assert.Equal(t, []string{"large.png"}, dropped)
	assert.Equal(t, []types.Attachment{
		{Name: "small.png", Type: "image/png", Data: "AAAA"},
		{Name: "raw.txt", Type: "text/plain", Data: "QQ=="},
	}, kept)

	kept, dropped = PrepareAttachments(nil, 4)
	assert.Empty(t, kept)
	assert.Empty(t, dropped)
}

func TestDecodedSize(t *testing.T) {
	assert.EqualValues(t, 3, decodedSize("AAAA"))
	assert.EqualValues(t, 1, decodedSize("QQ=="))
	assert.EqualValues(t, 2, decodedSize("QUI="))
	assert.EqualValues(t, 0, decodedSize(""))
}
