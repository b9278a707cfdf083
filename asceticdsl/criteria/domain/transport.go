package criteria

import (
	_ "embed"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidCriteria = errors.New("invalid criteria document")

//go:embed schema/criteria.schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// document is the transport form. The pending group marker is never carried.
type document struct {
	Query  string   `json:"query"`
	Page   *int     `json:"page,omitempty"`
	Size   *int     `json:"size,omitempty"`
	Sort   string   `json:"sort,omitempty"`
	Lang   string   `json:"lang,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

func (c *Criteria) MarshalJSON() ([]byte, error) {
	doc := document{Query: c.query, Sort: c.sort, Lang: c.lang, Fields: c.fields}
	if c.page != Unset {
		doc.Page = &c.page
	}
	if c.size != Unset {
		doc.Size = &c.size
	}
	return json.Marshal(doc)
}

func (c *Criteria) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*c = *NewWith(doc.Query, doc.Page, doc.Size, doc.Sort, doc.Lang, doc.Fields)
	return nil
}

// ParseJSON validates data against the criteria schema before decoding it.
func ParseJSON(data []byte) (*Criteria, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidCriteria, err.Error())
	}
	if !result.Valid() {
		var errs error
		for _, desc := range result.Errors() {
			errs = multierror.Append(errs, errors.New(desc.String()))
		}
		return nil, errors.Wrap(ErrInvalidCriteria, errs.Error())
	}
	c := New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(ErrInvalidCriteria, err.Error())
	}
	return c, nil
}

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Values renders c as HTTP query parameters. The query is carried as accumulated.
func (c *Criteria) Values() url.Values {
	v := url.Values{}
	if c.query != "" {
		v.Set("query", c.query)
	}
	if c.page != Unset {
		v.Set("page", strconv.Itoa(c.page))
	}
	if c.size != Unset {
		v.Set("size", strconv.Itoa(c.size))
	}
	if c.sort != "" {
		v.Set("sort", c.sort)
	}
	if c.lang != "" {
		v.Set("lang", c.lang)
	}
	if len(c.fields) > 0 {
		v.Set("fields", strings.Join(c.fields, TokenSeparator))
	}
	return v
}

// FromValues reads the parameters written by Values. Repeated sort parameters are
// joined in order.
func FromValues(v url.Values) (*Criteria, error) {
	c := Parse(v.Get("query"))
	for _, key := range []string{"page", "size"} {
		raw := v.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidCriteria, "%s=%q", key, raw)
		}
		if key == "page" {
			c.page = n
		} else {
			c.size = n
		}
	}
	for _, s := range v["sort"] {
		c.SortBy(s)
	}
	c.Lang(v.Get("lang"))
	if raw := v.Get("fields"); raw != "" {
		c.Fields(strings.Split(raw, TokenSeparator)...)
	}
	return c, nil
}
