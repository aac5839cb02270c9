package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	searchErrors "github.com/daleel/api/search/errors"
)

// Block operators joining a query to the running accumulator of the envelope.
const (
	OpAnd = "and"
	OpOr  = "or"
)

// DynOp values accepted on dynamic-field filters.
const (
	DynOpContains = "contains"
	DynOpEq       = "eq"
	DynOpBetween  = "between"
	DynOpAny      = "any"
	DynOpAll      = "all"
)

// LatLng is a point-in-circle geospatial facet. Radius is in metres.
type LatLng struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius float64 `json:"radius"`
}

// IDNumber filters actors by the heterogeneous id_number list.
type IDNumber struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// DynFilter is a single user-defined-field filter.
type DynFilter struct {
	Name  string      `json:"name"`
	Op    string      `json:"op"`
	Value interface{} `json:"value"`
}

// SearchQuery is one faceted-query object. Every facet is optional; facets
// within one object are conjoined by AND. Op joins the object to the running
// accumulator when the object is part of a nested envelope.
type SearchQuery struct {
	Op string `json:"op,omitempty"`

	// Identity
	IDs []int64 `json:"ids,omitempty"`

	// Free text
	Tsv        string   `json:"tsv,omitempty"`
	ExTsv      string   `json:"extsv,omitempty"`
	Terms      []string `json:"searchTerms,omitempty"`
	ExTerms    []string `json:"exTerms,omitempty"`
	TermsExact bool     `json:"termsExact,omitempty"`
	OpTerms    bool     `json:"opTerms,omitempty"`

	// Taxonomy
	Labels         []int64 `json:"labels,omitempty"`
	ExLabels       []int64 `json:"exlabels,omitempty"`
	OpLabels       bool    `json:"oplabels,omitempty"`
	ChildLabels    bool    `json:"childlabels,omitempty"`
	VerLabels      []int64 `json:"vlabels,omitempty"`
	ExVerLabels    []int64 `json:"exvlabels,omitempty"`
	OpVerLabels    bool    `json:"opvlabels,omitempty"`
	ChildVerLabels bool    `json:"childvlabels,omitempty"`
	Sources        []int64 `json:"sources,omitempty"`
	ExSources      []int64 `json:"exsources,omitempty"`
	OpSources      bool    `json:"opsources,omitempty"`
	ChildSources   bool    `json:"childsources,omitempty"`
	Locations      []int64 `json:"locations,omitempty"`
	ExLocations    []int64 `json:"exlocations,omitempty"`
	OpLocations    bool    `json:"oplocations,omitempty"`

	// Tags
	Tags     []string `json:"tags,omitempty"`
	ExTags   []string `json:"exTags,omitempty"`
	InExact  bool     `json:"inExact,omitempty"`
	ExExact  bool     `json:"exExact,omitempty"`
	OpTags   bool     `json:"opTags,omitempty"`
	OpExTags bool     `json:"opExTags,omitempty"`

	// Dates. Each range is one or two ISO dates.
	Created []string `json:"created,omitempty"`
	Updated []string `json:"updated,omitempty"`
	PubDate []string `json:"pubdate,omitempty"`
	DocDate []string `json:"docdate,omitempty"`

	// Events
	SingleEvent bool     `json:"singleEvent,omitempty"`
	EDate       []string `json:"edate,omitempty"`
	EType       *int64   `json:"etype,omitempty"`
	ELocation   *int64   `json:"elocation,omitempty"`

	// Workflow
	Roles        []int64  `json:"roles,omitempty"`
	NoRole       bool     `json:"norole,omitempty"`
	Assigned     []int64  `json:"assigned,omitempty"`
	Unassigned   bool     `json:"unassigned,omitempty"`
	Reviewer     []int64  `json:"reviewer,omitempty"`
	Statuses     []string `json:"statuses,omitempty"`
	ReviewAction string   `json:"reviewAction,omitempty"`

	// Relations
	RelToBulletin *int64 `json:"rel_to_bulletin,omitempty"`
	RelToActor    *int64 `json:"rel_to_actor,omitempty"`
	RelToIncident *int64 `json:"rel_to_incident,omitempty"`

	// Geospatial
	LatLng   *LatLng  `json:"latlng,omitempty"`
	LocTypes []string `json:"locTypes,omitempty"`

	// Actor-specific
	Nickname          string    `json:"nickname,omitempty"`
	FirstName         string    `json:"first_name,omitempty"`
	MiddleName        string    `json:"middle_name,omitempty"`
	LastName          string    `json:"last_name,omitempty"`
	FatherName        string    `json:"father_name,omitempty"`
	MotherName        string    `json:"mother_name,omitempty"`
	Ethnography       []int64   `json:"ethnography,omitempty"`
	OpEthno           bool      `json:"opEthno,omitempty"`
	Nationality       []int64   `json:"nationality,omitempty"`
	OpNat             bool      `json:"opNat,omitempty"`
	Dialects          []int64   `json:"dialects,omitempty"`
	OpDialects        bool      `json:"opDialects,omitempty"`
	ResLocations      []int64   `json:"resLocations,omitempty"`
	ExResLocations    []int64   `json:"exResLocations,omitempty"`
	OriginLocations   []int64   `json:"originLocations,omitempty"`
	ExOriginLocations []int64   `json:"exOriginLocations,omitempty"`
	Occupation        string    `json:"occupation,omitempty"`
	Position          string    `json:"position,omitempty"`
	FamilyStatus      string    `json:"family_status,omitempty"`
	Sex               string    `json:"sex,omitempty"`
	Age               []int     `json:"age,omitempty"`
	Civilian          string    `json:"civilian,omitempty"`
	Type              string    `json:"type,omitempty"`
	IDNumber          *IDNumber `json:"id_number,omitempty"`

	// Incident-specific
	PotentialVCats []int64 `json:"potentialVCats,omitempty"`
	ClaimedVCats   []int64 `json:"claimedVCats,omitempty"`

	// Activity-specific
	Actions []string `json:"actions,omitempty"`
	Model   string   `json:"model,omitempty"`
	Users   []int64  `json:"users,omitempty"`

	// Dynamic custom fields
	Dyn []DynFilter `json:"dyn,omitempty"`
}

// legacyFacets are pre-versioned facet names. Their presence fails the whole
// query so stale saved searches surface instead of silently misbehaving.
var legacyFacets = []string{
	"createdwithin",
	"updatedwithin",
	"docdatewithin",
	"pubdatewithin",
	"status",
}

// ParseQuery decodes one faceted-query object strictly: unknown facets are
// rejected and legacy facet names yield ErrLegacyQuery.
func ParseQuery(raw json.RawMessage) (*SearchQuery, error) {
	if len(raw) == 0 {
		return &SearchQuery{}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: malformed query object: %v", searchErrors.ErrInvalidQuery, err)
	}
	for _, name := range legacyFacets {
		if _, present := probe[name]; present {
			return nil, fmt.Errorf("%w: facet %q", searchErrors.ErrLegacyQuery, name)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var q SearchQuery
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("%w: %v", searchErrors.ErrInvalidQuery, err)
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &q, nil
}

// ParseEnvelope decodes a nested-boolean envelope: an ordered list of query
// objects each carrying its joining operator. A single object is accepted and
// treated as a one-element envelope.
func ParseEnvelope(raw json.RawMessage) ([]*SearchQuery, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []*SearchQuery{{}}, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: malformed query list: %v", searchErrors.ErrInvalidQuery, err)
		}
		if len(items) == 0 {
			return []*SearchQuery{{}}, nil
		}
		queries := make([]*SearchQuery, 0, len(items))
		for i, item := range items {
			q, err := ParseQuery(item)
			if err != nil {
				return nil, fmt.Errorf("query block %d: %w", i, err)
			}
			queries = append(queries, q)
		}
		return queries, nil
	}

	q, err := ParseQuery(trimmed)
	if err != nil {
		return nil, err
	}
	return []*SearchQuery{q}, nil
}

// Validate checks facet-level consistency after decoding.
func (q *SearchQuery) Validate() error {
	if q.Op != "" && q.Op != OpAnd && q.Op != OpOr {
		return searchErrors.NewQueryError("op", fmt.Sprintf("unknown operator %q", q.Op))
	}

	ranges := []struct {
		name  string
		value []string
	}{
		{"created", q.Created},
		{"updated", q.Updated},
		{"pubdate", q.PubDate},
		{"docdate", q.DocDate},
		{"edate", q.EDate},
	}
	for _, r := range ranges {
		if len(r.value) == 0 {
			continue
		}
		if len(r.value) > 2 {
			return searchErrors.NewQueryError(r.name, "date range must have one or two elements")
		}
		var parsed []time.Time
		for _, v := range r.value {
			t, err := ParseDate(v)
			if err != nil {
				return searchErrors.NewQueryError(r.name, fmt.Sprintf("invalid date %q", v))
			}
			parsed = append(parsed, t)
		}
		if r.name == "edate" && len(parsed) == 2 && parsed[1].Before(parsed[0]) {
			return searchErrors.NewQueryError(r.name, "to_date must not precede from_date")
		}
	}

	if len(q.Age) > 2 {
		return searchErrors.NewQueryError("age", "age range must have one or two elements")
	}

	for i, d := range q.Dyn {
		switch d.Op {
		case DynOpContains, DynOpEq, DynOpBetween, DynOpAny, DynOpAll:
		default:
			return searchErrors.NewQueryError("dyn", fmt.Sprintf("item %d: unknown op %q", i, d.Op))
		}
		if d.Name == "" {
			return searchErrors.NewQueryError("dyn", fmt.Sprintf("item %d: missing field name", i))
		}
	}

	if q.LatLng != nil && q.LatLng.Radius <= 0 {
		return searchErrors.NewQueryError("latlng", "radius must be positive")
	}

	return nil
}

// IsEmpty reports whether no facet is set. An all-empty envelope takes the
// simple-listing fast path in the paginator.
func (q *SearchQuery) IsEmpty() bool {
	if q == nil {
		return true
	}
	// An explicit empty ids list is a constraint: it matches nothing.
	if q.IDs != nil {
		return false
	}
	// Op alone does not constrain anything.
	probe := *q
	probe.Op = ""
	data, err := json.Marshal(probe)
	if err != nil {
		return false
	}
	return string(data) == "{}"
}

// EnvelopeIsEmpty reports whether every block of the envelope is empty.
func EnvelopeIsEmpty(queries []*SearchQuery) bool {
	for _, q := range queries {
		if !q.IsEmpty() {
			return false
		}
	}
	return true
}

// ParseDate accepts ISO dates with or without a time component.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	layouts := []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}
