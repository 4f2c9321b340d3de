package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/crates/internal/models"
	"github.com/desertthunder/crates/internal/shared"
)

// Some pages concatenate the url value in the embedded data, e.g. url: "http://x.bandcamp.com" + "/album/y",
var concatenatedURL = regexp.MustCompile(`(url: ".+)" \+ "(.+",)`)

var bandcampTimeFormats = []string{
	"02 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"2006-01-02",
}

type tralbumTrack struct {
	Title     string  `json:"title"`
	TrackNum  *int    `json:"track_num"`
	Duration  float64 `json:"duration"`
	TitleLink string  `json:"title_link"`
}

// tralbumData is the album payload embedded in the data-tralbum attribute of album and track pages.
type tralbumData struct {
	Artist   string `json:"artist"`
	URL      string `json:"url"`
	ItemType string `json:"item_type"`
	Current  struct {
		Title       string `json:"title"`
		ReleaseDate string `json:"release_date"`
	} `json:"current"`
	AlbumReleaseDate string         `json:"album_release_date"`
	TrackInfo        []tralbumTrack `json:"trackinfo"`
}

type ldArtist struct {
	Name string `json:"name"`
	ID   string `json:"@id"`
}

type ldRecording struct {
	Name     string `json:"name"`
	ID       string `json:"@id"`
	Duration string `json:"duration"`
}

// ldAlbum is the schema.org MusicAlbum (or MusicRecording) published as ld+json.
type ldAlbum struct {
	Type          string   `json:"@type"`
	Name          string   `json:"name"`
	ID            string   `json:"@id"`
	DatePublished string   `json:"datePublished"`
	ByArtist      ldArtist `json:"byArtist"`
	Track         struct {
		ItemListElement []struct {
			Position int         `json:"position"`
			Item     ldRecording `json:"item"`
		} `json:"itemListElement"`
	} `json:"track"`
	Duration string `json:"duration"`
}

// ParseAlbumPage extracts the album from a Bandcamp album or track page.
//
// The data-tralbum attribute is preferred; the ld+json block is used when it is missing.
// pageURL resolves relative track links and fills in the album URL when the page omits it.
func ParseAlbumPage(r io.Reader, pageURL string) (*models.AlbumInfo, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAlbumNotParsed, err)
	}

	if raw, ok := doc.Find("script[data-tralbum]").First().Attr("data-tralbum"); ok {
		var data tralbumData
		if err := json.Unmarshal([]byte(concatenatedURL.ReplaceAllString(raw, "${1}${2}")), &data); err != nil {
			return nil, fmt.Errorf("%w: data-tralbum: %v", shared.ErrAlbumNotParsed, err)
		}
		return data.toAlbumInfo(pageURL), nil
	}

	var album *models.AlbumInfo
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var data ldAlbum
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil || data.Name == "" {
			return true
		}
		album = data.toAlbumInfo(pageURL)
		return false
	})

	if album == nil {
		return nil, shared.ErrAlbumNotParsed
	}
	return album, nil
}

func (d tralbumData) toAlbumInfo(pageURL string) *models.AlbumInfo {
	albumURL := firstNonEmpty(d.URL, pageURL)
	album := &models.AlbumInfo{
		Name:        d.Current.Title,
		URL:         albumURL,
		ReleaseDate: parseBandcampTime(firstNonEmpty(d.AlbumReleaseDate, d.Current.ReleaseDate)),
		Tracks:      make([]models.AlbumTrack, 0, len(d.TrackInfo)),
	}

	if d.Artist != "" {
		album.Artist = &models.Artist{Name: d.Artist, URL: bandURL(albumURL)}
	}

	for i, t := range d.TrackInfo {
		position := i + 1
		if t.TrackNum != nil {
			position = *t.TrackNum
		}
		album.Tracks = append(album.Tracks, models.AlbumTrack{
			Name:     t.Title,
			Position: position,
			Duration: t.Duration,
			URL:      resolveLink(albumURL, t.TitleLink),
		})
	}

	return album
}

func (d ldAlbum) toAlbumInfo(pageURL string) *models.AlbumInfo {
	albumURL := firstNonEmpty(d.ID, pageURL)
	album := &models.AlbumInfo{
		Name:        d.Name,
		URL:         albumURL,
		ReleaseDate: parseBandcampTime(d.DatePublished),
		Tracks:      []models.AlbumTrack{},
	}

	if d.ByArtist.Name != "" {
		album.Artist = &models.Artist{Name: d.ByArtist.Name, URL: firstNonEmpty(d.ByArtist.ID, bandURL(albumURL))}
	}

	if d.Type == "MusicRecording" {
		album.Tracks = append(album.Tracks, models.AlbumTrack{Name: d.Name, Position: 1, URL: albumURL})
		return album
	}

	for i, el := range d.Track.ItemListElement {
		position := el.Position
		if position == 0 {
			position = i + 1
		}
		album.Tracks = append(album.Tracks, models.AlbumTrack{
			Name:     el.Item.Name,
			Position: position,
			URL:      el.Item.ID,
		})
	}

	return album
}

func parseBandcampTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range bandcampTimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func resolveLink(base, link string) string {
	if link == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return link
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	return b.ResolveReference(ref).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
