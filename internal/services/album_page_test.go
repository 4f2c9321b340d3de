package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/crates/internal/shared"
)

func TestParseAlbumPage(t *testing.T) {
	t.Run("data-tralbum", func(t *testing.T) {
		page := `<script data-tralbum="{&quot;artist&quot;:&quot;Y&quot;,&quot;current&quot;:{&quot;title&quot;:&quot;X&quot;},&quot;trackinfo&quot;:[{&quot;title&quot;:&quot;T1&quot;,&quot;track_num&quot;:null},{&quot;title&quot;:&quot;T2&quot;,&quot;track_num&quot;:null}]}"></script>`

		album, err := ParseAlbumPage(strings.NewReader(page), "https://y.bandcamp.com/album/x")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if album.Name != "X" || album.Artist == nil || album.Artist.Name != "Y" {
			t.Errorf("unexpected album %+v", album)
		}
		if album.URL != "https://y.bandcamp.com/album/x" {
			t.Errorf("expected page url fallback, got %s", album.URL)
		}
		if album.Artist.URL != "https://y.bandcamp.com" {
			t.Errorf("unexpected artist url %s", album.Artist.URL)
		}
		if album.Tracks[1].Position != 2 {
			t.Errorf("expected positional track number, got %d", album.Tracks[1].Position)
		}
	})

	t.Run("Malformed Data", func(t *testing.T) {
		page := `<script data-tralbum='{"artist":"Y", url: "http://y.bandcamp.com" + "/album/x", "current":{"title":"X"},"trackinfo":[]}'></script>`

		if _, err := ParseAlbumPage(strings.NewReader(page), ""); !errors.Is(err, shared.ErrAlbumNotParsed) {
			t.Errorf("expected ErrAlbumNotParsed, got %v", err)
		}
	})

	t.Run("ld+json Fallback", func(t *testing.T) {
		page := `<html><head><script type="application/ld+json">
{"@type":"MusicAlbum","@id":"https://y.bandcamp.com/album/x","name":"X","byArtist":{"name":"Y"},
 "datePublished":"05 Mar 2021 00:00:00 GMT",
 "track":{"itemListElement":[{"position":1,"item":{"name":"T1"}},{"position":2,"item":{"name":"T2"}}]}}
</script></head></html>`

		album, err := ParseAlbumPage(strings.NewReader(page), "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		names := album.TrackNames()
		if len(names) != 2 || names[0] != "T1" {
			t.Errorf("unexpected tracks %v", names)
		}
		if album.URL != "https://y.bandcamp.com/album/x" {
			t.Errorf("unexpected url %s", album.URL)
		}
		if album.ReleaseDate.Year() != 2021 {
			t.Errorf("unexpected release date %v", album.ReleaseDate)
		}
	})

	t.Run("Single Track Page", func(t *testing.T) {
		page := `<script type="application/ld+json">{"@type":"MusicRecording","name":"T","byArtist":{"name":"Y"}}</script>`

		album, err := ParseAlbumPage(strings.NewReader(page), "https://y.bandcamp.com/track/t")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(album.Tracks) != 1 || album.Tracks[0].Name != "T" {
			t.Errorf("unexpected tracks %+v", album.Tracks)
		}
	})

	t.Run("No Album Data", func(t *testing.T) {
		_, err := ParseAlbumPage(strings.NewReader("<html><body>hi</body></html>"), "")
		if !errors.Is(err, shared.ErrAlbumNotParsed) {
			t.Errorf("expected ErrAlbumNotParsed, got %v", err)
		}
	})

	t.Run("Empty Track List", func(t *testing.T) {
		page := `<script data-tralbum="{&quot;artist&quot;:&quot;Y&quot;,&quot;current&quot;:{&quot;title&quot;:&quot;X&quot;}}"></script>`

		album, err := ParseAlbumPage(strings.NewReader(page), "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if album.TrackNames() == nil || len(album.TrackNames()) != 0 {
			t.Errorf("expected empty non-nil track names, got %#v", album.TrackNames())
		}
	})
}

func TestFixConcatenatedURL(t *testing.T) {
	in := `url: "http://y.bandcamp.com" + "/album/x",`
	want := `url: "http://y.bandcamp.com/album/x",`

	if got := concatenatedURL.ReplaceAllString(in, "${1}${2}"); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
