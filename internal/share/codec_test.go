package share

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/invitio/invitio/backend-go/internal/document"
)

func shareProject() *document.Project {
	work := document.Size{Width: 500, Height: 500}
	p := document.NewEmptyProject(work)
	img := &document.ImageLayer{Src: "https://cdn.example/img.jpg", NatW: 200, NatH: 100, Scale: 0.5, SignX: 1, SignY: 1}
	img.SetPercentPosition(40, 60, 500, 500)
	p.Slides[0].Image = img
	p.Slides[0].Layers = append(p.Slides[0].Layers, document.TextLayer{Text: "You're invited", Left: 250, Top: 120, FadeInMs: 400})
	return p
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := shareProject()
	payload, err := EncodeState(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeState(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := document.SafeForShare(p)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip diverged:\n got %+v\nwant %+v", got, want)
	}
}

func TestEncodeStripsDataURLs(t *testing.T) {
	p := shareProject()
	p.Slides[0].Image.Src = "data:image/png;base64,AAAA"
	p.Slides[0].Image.Thumb = "data:image/png;base64,BBBB"

	payload, err := EncodeState(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeState(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Slides[0].Image.Src != "" || got.Slides[0].Image.Thumb != "" {
		t.Fatalf("data URL leaked into payload: %+v", got.Slides[0].Image)
	}
}

func TestDecodeToleratesVariants(t *testing.T) {
	p := shareProject()
	data, err := json.Marshal(document.SafeForShare(p))
	if err != nil {
		t.Fatal(err)
	}
	variants := []string{
		base64.RawURLEncoding.EncodeToString(data),
		base64.URLEncoding.EncodeToString(data),
		base64.StdEncoding.EncodeToString(data),
		"  " + base64.RawURLEncoding.EncodeToString(data) + "\n",
	}
	for _, v := range variants {
		if _, err := DecodeState(v); err != nil {
			t.Fatalf("variant rejected: %v", err)
		}
	}
}

func TestDecodeGarbageFails(t *testing.T) {
	for _, bad := range []string{"", "!!!", "bm90IGpzb24"} {
		if _, err := DecodeState(bad); err == nil {
			t.Fatalf("decode accepted %q", bad)
		}
	}
}

func TestHardPayloadLimit(t *testing.T) {
	p := shareProject()
	for i := 0; i < 200; i++ {
		s := document.NewSlide(document.Size{Width: 500, Height: 500})
		s.Layers = append(s.Layers, document.TextLayer{Text: strings.Repeat("x", 100)})
		p.Slides = append(p.Slides, s)
	}
	if _, err := EncodeState(p); err != ErrPayloadTooLarge {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestBuildViewerURL(t *testing.T) {
	u, err := BuildViewerURL("https://invitio.app/", shareProject(), slog.Default())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(u, "https://invitio.app/?view=1#d=") {
		t.Fatalf("url shape: %s", u)
	}

	payload, ok := ViewerPayloadFromURL(u)
	if !ok {
		t.Fatal("payload not extracted")
	}
	if _, err := DecodeState(payload); err != nil {
		t.Fatalf("extracted payload invalid: %v", err)
	}
}

func TestViewerPayloadFromQueryForm(t *testing.T) {
	payload, err := EncodeState(shareProject())
	if err != nil {
		t.Fatal(err)
	}
	got, ok := ViewerPayloadFromURL("https://invitio.app/?view=1&d=" + payload)
	if !ok || got != payload {
		t.Fatalf("query form not accepted: ok=%v", ok)
	}
}

func TestQRPNG(t *testing.T) {
	png, err := QRPNG("https://invitio.app/?view=1#d=abc", 0)
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	if len(png) == 0 || string(png[1:4]) != "PNG" {
		t.Fatalf("not a PNG, %d bytes", len(png))
	}
}
