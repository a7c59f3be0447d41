package main

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-magicdog/internal/log"
	"github.com/teslashibe/go-magicdog/pkg/dog"
	"github.com/teslashibe/go-magicdog/pkg/perception"
)

func chunk(amplitude int16, samples int) *dog.ByteMultiArray {
	data := make([]byte, 2*samples)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(amplitude))
	}
	return &dog.ByteMultiArray{Data: data}
}

func TestCollectStopsAfterSilenceFollowingSpeech(t *testing.T) {
	r := recording{silence: 0, max: time.Minute, threshold: 500, logger: log.Discard()}
	chunks := make(chan *dog.ByteMultiArray, 8)
	chunks <- chunk(0, 10)    // quiet before speech is kept but does not end
	chunks <- chunk(2000, 10) // speech
	chunks <- chunk(0, 10)    // quiet starts
	chunks <- chunk(0, 10)    // quiet long enough
	chunks <- chunk(2000, 10) // never read

	pcm, err := r.collect(context.Background(), chunks)
	require.NoError(t, err)
	assert.Len(t, pcm, 4*20)
	assert.Len(t, chunks, 1)
}

func TestCollectEndsWhenStreamCloses(t *testing.T) {
	r := recording{silence: time.Hour, max: time.Minute, threshold: 500, logger: log.Discard()}
	chunks := make(chan *dog.ByteMultiArray, 2)
	chunks <- &dog.ByteMultiArray{Data: []byte{1, 2, 3}}
	close(chunks)

	pcm, err := r.collect(context.Background(), chunks)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, pcm, "odd trailing byte dropped")
}

func TestCollectWithoutAudioFails(t *testing.T) {
	r := recording{silence: time.Hour, max: 10 * time.Millisecond, threshold: 500, logger: log.Discard()}
	_, err := r.collect(context.Background(), make(chan *dog.ByteMultiArray))
	assert.Error(t, err)
}

func TestUploadFileRejectsNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	client := perception.NewSpeechClient("http://127.0.0.1:1/speech", nil)
	_, err := uploadFile(context.Background(), client, path)
	assert.ErrorContains(t, err, "not a WAV file")
}
