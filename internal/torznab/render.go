package torznab

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"grabarr/internal/feedstore"
)

const torznabNS = "http://torznab.com/schemas/2015/feed"

// Error codes from the newznab API convention.
const (
	CodeIncorrectCredentials = 100
	CodeMissingParameter     = 200
	CodeUnknownFunction      = 202
	CodeNoSuchItem           = 300
	CodeUnknownError         = 900
	CodeAPIDisabled          = 1001
)

// FeedInfo carries the channel-level metadata rendered into every response.
type FeedInfo struct {
	Title         string
	Link          string
	Description   string
	Language      string
	Image         string
	APIKey        string
	RetentionDays int
}

// Renderer builds the XML payloads the /api endpoint serves.
type Renderer struct {
	info FeedInfo
	cats *CategoryTable
}

// NewRenderer constructs a renderer over the default category tree.
func NewRenderer(info FeedInfo) (*Renderer, error) {
	cats, err := NewCategoryTable(DefaultCategories)
	if err != nil {
		return nil, err
	}
	return &Renderer{info: info, cats: cats}, nil
}

// Categories exposes the category table for query filtering.
func (r *Renderer) Categories() *CategoryTable {
	return r.cats
}

type errorDoc struct {
	XMLName     xml.Name `xml:"error"`
	Code        int      `xml:"code,attr"`
	Description string   `xml:"description,attr"`
}

// Error renders a torznab error document.
func (r *Renderer) Error(code int, description string) ([]byte, error) {
	return marshal(errorDoc{Code: code, Description: description})
}

type capsDoc struct {
	XMLName    xml.Name `xml:"caps"`
	Server     capsServer
	Limits     capsLimits
	Retention  capsRetention
	Searching  capsSearching
	Categories capsCategories
	Tags       capsTags
}

type capsServer struct {
	XMLName xml.Name `xml:"server"`
	Title   string   `xml:"title,attr"`
	URL     string   `xml:"url,attr"`
}

type capsLimits struct {
	XMLName xml.Name `xml:"limits"`
	Max     int      `xml:"max,attr"`
	Default int      `xml:"default,attr"`
}

type capsRetention struct {
	XMLName xml.Name `xml:"retention"`
	Days    int      `xml:"days,attr"`
}

type capsSearching struct {
	XMLName     xml.Name `xml:"searching"`
	Search      capsMode `xml:"search"`
	TVSearch    capsMode `xml:"tv-search"`
	MovieSearch capsMode `xml:"movie-search"`
}

type capsMode struct {
	Available       string `xml:"available,attr"`
	SupportedParams string `xml:"supportedParams,attr"`
}

type capsCategories struct {
	XMLName    xml.Name       `xml:"categories"`
	Categories []capsCategory `xml:"category"`
}

type capsCategory struct {
	ID      int          `xml:"id,attr"`
	Name    string       `xml:"name,attr"`
	Subcats []capsSubcat `xml:"subcat,omitempty"`
}

type capsSubcat struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// capsTags is always empty; the feed defines no release tags, but readers
// expect the section to be present.
type capsTags struct {
	XMLName xml.Name `xml:"tags"`
}

// MaxLimit caps how many items one RSS page may carry; DefaultLimit applies
// when the query does not ask for a size.
const (
	MaxLimit     = 100
	DefaultLimit = 50
)

// Caps renders the capabilities document.
func (r *Renderer) Caps() ([]byte, error) {
	doc := capsDoc{
		Server:    capsServer{Title: r.info.Title, URL: r.info.Link},
		Limits:    capsLimits{Max: MaxLimit, Default: DefaultLimit},
		Retention: capsRetention{Days: r.info.RetentionDays},
		Searching: capsSearching{
			Search:      capsMode{Available: "yes", SupportedParams: "q,cat"},
			TVSearch:    capsMode{Available: "yes", SupportedParams: "q,cat,tvdbid,season,ep,genre"},
			MovieSearch: capsMode{Available: "yes", SupportedParams: "q,cat,imdbid,genre"},
		},
	}
	for _, root := range r.cats.TopLevel() {
		cat := capsCategory{ID: root.ID, Name: root.Label}
		for _, child := range r.cats.Children(root.ID) {
			cat.Subcats = append(cat.Subcats, capsSubcat{ID: child.ID, Name: root.Label + "/" + child.Label})
		}
		doc.Categories.Categories = append(doc.Categories.Categories, cat)
	}
	return marshal(doc)
}

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	NS      string     `xml:"xmlns:torznab,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Image       *rssImage `xml:"image,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssImage struct {
	URL   string `xml:"url"`
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

type rssItem struct {
	Title     string       `xml:"title"`
	GUID      string       `xml:"guid"`
	Link      string       `xml:"link"`
	Comments  string       `xml:"comments,omitempty"`
	PubDate   string       `xml:"pubDate"`
	Category  string       `xml:"category"`
	Size      int64        `xml:"size"`
	Enclosure rssEnclosure `xml:"enclosure"`
	Attrs     []rssAttr    `xml:"torznab:attr"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type rssAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// RSS renders one page of records as a torznab RSS document. Records must
// already be filtered and sorted; offset and limit slice the page.
func (r *Renderer) RSS(records []feedstore.Record, offset, limit int) ([]byte, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(records) {
		offset = len(records)
	}
	page := records[offset:]
	if len(page) > limit {
		page = page[:limit]
	}

	channel := rssChannel{
		Title:       r.info.Title,
		Link:        r.info.Link,
		Description: r.info.Description,
		Language:    r.info.Language,
	}
	if r.info.Image != "" {
		channel.Image = &rssImage{URL: r.info.Image, Title: r.info.Title, Link: r.info.Link}
	}
	for _, record := range page {
		channel.Items = append(channel.Items, r.item(record))
	}
	return marshal(rssDoc{Version: "2.0", NS: torznabNS, Channel: channel})
}

func (r *Renderer) item(record feedstore.Record) rssItem {
	title := record.FileName
	if record.Tag != "" {
		title = fmt.Sprintf("[%s] %s", record.Tag, title)
	}
	item := rssItem{
		Title:    title,
		GUID:     r.permalink(record),
		Link:     record.FileURL,
		Comments: record.DescrLink,
		PubDate:  time.Unix(record.PubDate, 0).UTC().Format(time.RFC1123Z),
		Category: record.Category,
		Size:     record.FileSize,
		Enclosure: rssEnclosure{
			URL:    record.FileURL,
			Length: record.FileSize,
			Type:   "application/x-bittorrent",
		},
	}

	attrs := []rssAttr{
		{Name: "seeders", Value: strconv.Itoa(record.Seeders)},
		{Name: "peers", Value: strconv.Itoa(record.Seeders + record.Leechers)},
		{Name: "size", Value: strconv.FormatInt(record.FileSize, 10)},
	}
	if id, ok := r.cats.IDFor(record.Kind, record.Category); ok {
		root, _ := r.cats.Root(id)
		attrs = append(attrs,
			rssAttr{Name: "category", Value: strconv.Itoa(root.ID)},
			rssAttr{Name: "category", Value: strconv.Itoa(id)})
	}
	if record.IMDBID != "" {
		attrs = append(attrs, rssAttr{Name: "imdbid", Value: record.IMDBID})
	}
	if record.TVDBID != 0 {
		attrs = append(attrs, rssAttr{Name: "tvdbid", Value: strconv.FormatInt(record.TVDBID, 10)})
	}
	if record.Season != 0 {
		attrs = append(attrs, rssAttr{Name: "season", Value: strconv.Itoa(record.Season)})
	}
	if record.Episode != 0 {
		attrs = append(attrs, rssAttr{Name: "episode", Value: strconv.Itoa(record.Episode)})
	}
	if len(record.Genres) > 0 {
		attrs = append(attrs, rssAttr{Name: "genre", Value: strings.Join(record.Genres, ", ")})
	}
	item.Attrs = attrs
	return item
}

// permalink builds the details guid for one record: a stable URL back into
// this feed keyed by the record's details link.
func (r *Renderer) permalink(record feedstore.Record) string {
	query := url.Values{
		"apikey": {r.info.APIKey},
		"t":      {"details"},
		"q":      {record.DescrLink},
	}
	return strings.TrimRight(r.info.Link, "/") + "/api?" + query.Encode()
}

func marshal(doc any) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render torznab xml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
