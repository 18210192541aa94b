package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"

	"trans-gate/internal/wire"
)

func TestCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec)
	assert.Equal(t, CodecName, codec.Name())
}

func TestCodecRoundTrip(t *testing.T) {
	codec := jsonCodec{}

	in := &wire.TranslateResponse{
		RequestID:              "req-1",
		IsAllItemTransFinished: true,
		OutputDataList:         []string{"payload-a", "payload-b"},
	}

	data, err := codec.Marshal(in)
	require.NoError(t, err)

	out := new(wire.TranslateResponse)
	require.NoError(t, codec.Unmarshal(data, out))
	assert.Equal(t, in, out)
}

func TestCodecOmitsEmptyErrorFields(t *testing.T) {
	codec := jsonCodec{}

	data, err := codec.Marshal(&wire.TranslateResponse{RequestID: "req-1"})
	require.NoError(t, err)

	assert.NotContains(t, string(data), "errorCode")
	assert.NotContains(t, string(data), "errorMessage")
}
