package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harkveil/harkveil/internal/classifier"
	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/geo"
	"github.com/harkveil/harkveil/internal/triage"
)

func sampleReport() triage.Report {
	return triage.Report{
		Operator: geo.Point{Latitude: 16.485475, Longitude: 80.691727},
		Records: []triage.EmergencyRecord{{
			ClipID:         "0123456789abcdef0123456789abcdef",
			OriginName:     "+911234567890.mp3",
			Format:         clip.FormatMP3,
			Keywords:       []string{"help", "fire", "i'm scared"},
			Label:          classifier.LabelUnclassifiable,
			Phone:          "+911234567890",
			CallerLocation: geo.Point{Latitude: 16.4912345678901, Longitude: 80.6012345678901},
			DetectedAt:     time.Date(2026, 7, 8, 9, 10, 11, 987654321, time.UTC),
		}},
		Outcomes: []triage.ClipOutcome{
			{ClipID: "0123456789abcdef0123456789abcdef", OriginName: "+911234567890.mp3", Status: triage.OutcomeEmergency, Extraction: triage.ExtractionFailed, Reason: "decode"},
			{ClipID: "ffff", OriginName: "x.wav", Status: triage.OutcomeNoMatch, Extraction: triage.ExtractionSkipped},
		},
	}
}

func TestStoreSaveGet(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	sess := store.Save(sampleReport())
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	store.Delete(sess.ID)
	_, err = store.Get(sess.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestStoreExpiry(t *testing.T) {
	t.Parallel()

	store := NewStore(20 * time.Millisecond)
	sess := store.Save(sampleReport())

	require.Eventually(t, func() bool {
		_, err := store.Get(sess.ID)
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestStoreDefaultTTL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultTTL, NewStore(0).TTL())
}

func TestEncodeDecodeIsLossless(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	sess := store.Save(sampleReport())

	data, err := Encode(sess)
	require.NoError(t, err)

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, sess, back)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"missing records", `{"session_id":"x","report":{"operator":{"latitude":1,"longitude":2}}}`},
		{"bad label", `{"session_id":"x","report":{"records":[{"label":"PERHAPS"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}
