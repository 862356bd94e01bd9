package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFormatHeightSerialization(t *testing.T) {
	t.Run("audio-only height is null", func(t *testing.T) {
		b, err := json.Marshal(Format{ID: "140", Kind: KindAudio, Container: "m4a", HasAudio: true})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(b), `"height":null`) {
			t.Errorf("audio format = %s, want height null", b)
		}
	})

	t.Run("video height is the number", func(t *testing.T) {
		h := 1080
		b, err := json.Marshal(Format{ID: "137", Kind: KindVideo, HasVideo: true, Height: &h})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(b), `"height":1080`) {
			t.Errorf("video format = %s, want height 1080", b)
		}
	})
}

func TestCloneIsDeep(t *testing.T) {
	h := 720
	orig := &ResolvedMedia{
		Title:   "clip",
		Formats: []Format{{ID: "22", Height: &h}},
	}

	c := orig.Clone()
	c.Formats[0].ID = "999"
	*c.Formats[0].Height = 144

	if orig.Formats[0].ID != "22" {
		t.Errorf("clone shares the format slice")
	}
	if *orig.Formats[0].Height != 720 {
		t.Errorf("clone shares the height pointer")
	}
}
