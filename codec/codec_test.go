package codec_test

import (
	"testing"

	"github.com/aatle/pyriak/assert"
	"github.com/aatle/pyriak/codec"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestEncodeDecode(t *testing.T) {
	bz, err := codec.Encode(payload{Name: "slime", Count: 4})
	assert.NilError(t, err)

	got, err := codec.Decode[payload](bz)
	assert.NilError(t, err)
	assert.Equal(t, got, payload{Name: "slime", Count: 4})
}

func TestDecodeBadInputFails(t *testing.T) {
	_, err := codec.Decode[payload]([]byte("{not json"))
	assert.IsError(t, err)
}

func TestEncodeIndentIsReadable(t *testing.T) {
	bz, err := codec.EncodeIndent(payload{Name: "slime"})
	assert.NilError(t, err)
	assert.JSONEq(t, `{"name":"slime","count":0}`, string(bz))
}
