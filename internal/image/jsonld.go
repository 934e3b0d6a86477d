package image

import (
	"bytes"
	"encoding/json"
	"strings"
)

// imageKind tags which JSON shape an "image" field had.
type imageKind int

const (
	imageNone imageKind = iota
	imageString
	imageObject
	imageList
)

// ldImage is the decoded "image" field of a linked-data block: a plain URL,
// an ImageObject with a url, or a list of either.
type ldImage struct {
	Kind  imageKind
	URL   string
	Items []ldImage
}

func (i *ldImage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = ldImage{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = ldImage{Kind: imageString, URL: s}
	case '{':
		var obj struct {
			URL        string `json:"url"`
			ContentURL string `json:"contentUrl"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		u := obj.URL
		if u == "" {
			u = obj.ContentURL
		}
		*i = ldImage{Kind: imageObject, URL: u}
	case '[':
		var items []ldImage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*i = ldImage{Kind: imageList, Items: items}
	default:
		*i = ldImage{}
	}
	return nil
}

// First returns the first usable URL.
func (i ldImage) First() string {
	switch i.Kind {
	case imageString, imageObject:
		return strings.TrimSpace(i.URL)
	case imageList:
		for _, item := range i.Items {
			if u := item.First(); u != "" {
				return u
			}
		}
	}
	return ""
}

type ldBlock struct {
	Image    ldImage `json:"image"`
	Headline string  `json:"headline"`
	Name     string  `json:"name"`
}

// parseLD decodes one ld+json script body, which may hold a single object or
// a list (the first element is used).
func parseLD(raw string) (ldBlock, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) > 0 && data[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return ldBlock{}, err
		}
		if len(list) == 0 {
			return ldBlock{}, nil
		}
		data = list[0]
	}
	var b ldBlock
	err := json.Unmarshal(data, &b)
	return b, err
}

func (b ldBlock) alt() string {
	if b.Headline != "" {
		return b.Headline
	}
	return b.Name
}
