// ABOUTME: Tests for the param blob codec
// ABOUTME: Covers parsing, malformed line tolerance and stable re-encoding

package param

import "testing"

func TestParse(t *testing.T) {
	p := Parse("f=photo.jpg\nm=image/jpeg\nw=800")

	if v, ok := p.Get(File); !ok || v != "photo.jpg" {
		t.Errorf("Get(File) = (%q, %v), want (%q, true)", v, ok, "photo.jpg")
	}
	if v, ok := p.Get(MimeType); !ok || v != "image/jpeg" {
		t.Errorf("Get(MimeType) = (%q, %v), want (%q, true)", v, ok, "image/jpeg")
	}
	if v, ok := p.Get(Width); !ok || v != "800" {
		t.Errorf("Get(Width) = (%q, %v), want (%q, true)", v, ok, "800")
	}
	if _, ok := p.Get(Height); ok {
		t.Error("Get(Height) found a value that was never set")
	}
}

func TestParse_MalformedLines(t *testing.T) {
	// Lines without key=value shape are skipped, not fatal
	p := Parse("f=kept.png\ngarbage\n=orphan\nx\n\nm=text/plain")

	if v, ok := p.Get(File); !ok || v != "kept.png" {
		t.Errorf("Get(File) = (%q, %v), want (%q, true)", v, ok, "kept.png")
	}
	if v, ok := p.Get(MimeType); !ok || v != "text/plain" {
		t.Errorf("Get(MimeType) = (%q, %v), want (%q, true)", v, ok, "text/plain")
	}
}

func TestParse_EmptyValue(t *testing.T) {
	p := Parse("f=\nw=800")

	if v, ok := p.Get(File); !ok || v != "" {
		t.Errorf("Get(File) = (%q, %v), want (%q, true)", v, ok, "")
	}

	// An empty value survives a round trip
	q := New()
	q.Set(File, "")
	q.Set(Width, "800")
	r := Parse(q.String())
	if v, ok := r.Get(File); !ok || v != "" {
		t.Errorf("round trip lost empty value: Get(File) = (%q, %v)", v, ok)
	}
}

func TestParse_Empty(t *testing.T) {
	p := Parse("")
	if s := p.String(); s != "" {
		t.Errorf("String() = %q for empty blob, want empty", s)
	}
}

func TestParams_SetDelete(t *testing.T) {
	p := New()
	p.Set(File, "voice.ogg")
	p.Set(Duration, "2500")

	if v, ok := p.Get(Duration); !ok || v != "2500" {
		t.Errorf("Get(Duration) = (%q, %v), want (%q, true)", v, ok, "2500")
	}

	p.Delete(Duration)
	if _, ok := p.Get(Duration); ok {
		t.Error("Get(Duration) found a deleted key")
	}
	if v, ok := p.Get(File); !ok || v != "voice.ogg" {
		t.Errorf("Get(File) = (%q, %v) after unrelated delete, want (%q, true)", v, ok, "voice.ogg")
	}
}

func TestParams_StableEncoding(t *testing.T) {
	p := New()
	p.Set(Width, "100")
	p.Set(File, "a.png")
	p.Set(Height, "200")

	// 'f' < 'h' < 'w'
	want := "f=a.png\nh=200\nw=100"
	if got := p.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	// Round trip
	q := Parse(p.String())
	if q.String() != p.String() {
		t.Errorf("round trip changed encoding: %q != %q", q.String(), p.String())
	}
}

func TestParams_BlobDirPrefix(t *testing.T) {
	p := New()
	p.Set(ProfileImage, BlobDirPrefix+"avatar.png")

	v, ok := p.Get(ProfileImage)
	if !ok {
		t.Fatal("Get(ProfileImage) found nothing")
	}
	if v != "$BLOBDIR/avatar.png" {
		t.Errorf("ProfileImage = %q, want %q", v, "$BLOBDIR/avatar.png")
	}
}
