package jobs

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	SearchPath = "/search"
)

type SearchParams struct {
	// jsearch is custom tag for reflect. Please see below.
	Query           string   `jsearch:"query" mapstructure:"query"`
	Page            int      `jsearch:"page" mapstructure:"page"`
	NumPages        int      `jsearch:"num_pages" mapstructure:"num-pages"`
	Country         string   `jsearch:"country" mapstructure:"country"`
	DatePosted      string   `jsearch:"date_posted" mapstructure:"date-posted"`
	RemoteOnly      bool     `jsearch:"remote_jobs_only" mapstructure:"remote-only"`
	EmploymentTypes []string `jsearch:"employment_types" mapstructure:"employment-types"`
	// Location is appended to the query as "in <location>".
	Location string `jsearch:"-" mapstructure:"location"`
}

// rawJob is a JSearch data item. Only the fields mapped onto Job are kept.
type rawJob struct {
	Title       string `json:"job_title"`
	Employer    string `json:"employer_name"`
	City        string `json:"job_city"`
	Country     string `json:"job_country"`
	Description string `json:"job_description"`
	ApplyLink   string `json:"job_apply_link"`
	GoogleLink  string `json:"job_google_link"`
}

func (r *rawJob) toJob() *Job {
	location := r.City
	if location == "" {
		location = r.Country
	}
	link := r.ApplyLink
	if link == "" {
		link = r.GoogleLink
	}
	return &Job{
		Title:       r.Title,
		Company:     r.Employer,
		Location:    location,
		Description: r.Description,
		Link:        link,
	}
}

func (c *Client) search(ctx context.Context, params *SearchParams, limit int) (*Jobs, error) {
	if params == nil {
		params = &SearchParams{}
	}
	p := *params

	if strings.TrimSpace(p.Query) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.NumPages <= 0 {
		p.NumPages = 1
	}
	if loc := strings.TrimSpace(p.Location); loc != "" {
		p.Query = fmt.Sprintf("%s in %s", p.Query, loc)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := buildParams(&p)
	apiURLSearch := fmt.Sprintf("%s%s", strings.TrimRight(c.APIURL, "/"), SearchPath)

	items, err := c.GetItems(ctx, apiURLSearch, q)
	if err != nil {
		return nil, err
	}

	var raw []*rawJob
	cfg := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           &raw,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode job postings: %w", err)
	}

	if len(raw) > limit {
		raw = raw[:limit]
	}

	result := &Jobs{Items: make([]*Job, 0, len(raw))}
	for _, r := range raw {
		if r == nil {
			continue
		}
		result.Items = append(result.Items, r.toJob())
	}

	c.logger.Info("got job postings", zap.Int("count", result.Len()), zap.Int("limit", limit))

	return result, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()
	fields := reflect.VisibleFields(value.Type())
	for _, field := range fields {
		// Our custom tag is using here.
		key := field.Tag.Get("jsearch")
		if key == "" || key == "-" {
			continue
		}

		v := value.FieldByIndex(field.Index).Interface()
		switch typed := v.(type) {
		case []string:
			if len(typed) > 0 {
				q.Set(key, strings.Join(typed, ","))
			}
		case bool:
			if typed {
				q.Set(key, strconv.FormatBool(typed))
			}
		default:
			s := fmt.Sprintf("%v", typed)
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}

	return q
}
