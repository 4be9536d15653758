package github

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
)

// maxFragmentLen bounds the raw JSON carried by a DecodingError.
const maxFragmentLen = 200

// DecodingError reports gh output that does not have the expected shape.
type DecodingError struct {
	// Path locates the offending value, e.g. "$[2].head.repo.owner.login".
	Path string
	// Reason describes what was wrong.
	Reason string
	// Fragment is the raw JSON at or around Path, truncated. It may be empty.
	Fragment string
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("invalid gh output at %s: %s", e.Path, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type rawUser struct {
	ID    *int64  `json:"id" validate:"required"`
	Login *string `json:"login" validate:"required"`
}

func (u *rawUser) entity() User {
	return User{ID: *u.ID, Login: *u.Login}
}

type rawOwner struct {
	Login *string `json:"login" validate:"required"`
}

type rawRepoRef struct {
	Name  *string   `json:"name" validate:"required"`
	Owner *rawOwner `json:"owner" validate:"required"`
}

func (r *rawRepoRef) entity() RepoRef {
	return RepoRef{Owner: *r.Owner.Login, Name: *r.Name}
}

type rawBranch struct {
	Repo *rawRepoRef `json:"repo" validate:"required"`
}

type rawPullRequest struct {
	Base      *rawBranch `json:"base" validate:"required"`
	CreatedAt *string    `json:"created_at" validate:"required"`
	Draft     *bool      `json:"draft" validate:"required"`
	Head      *rawBranch `json:"head" validate:"required"`
	ID        *int64     `json:"id" validate:"required"`
	Number    *int       `json:"number" validate:"required"`
	State     *string    `json:"state" validate:"required"`
	Title     *string    `json:"title" validate:"required"`
	User      *rawUser   `json:"user" validate:"required"`
}

func (r *rawPullRequest) entity() (PullRequest, error) {
	createdAt, err := parseTimestamp("created_at", *r.CreatedAt)
	if err != nil {
		return PullRequest{}, err
	}
	return PullRequest{
		ID:        *r.ID,
		Number:    *r.Number,
		Title:     *r.Title,
		State:     *r.State,
		IsDraft:   *r.Draft,
		User:      r.User.entity(),
		CreatedAt: createdAt,
		HeadRepo:  r.Head.Repo.entity(),
		BaseRepo:  r.Base.Repo.entity(),
	}, nil
}

type rawIssue struct {
	Body        *string         `json:"body"`
	CreatedAt   *string         `json:"created_at" validate:"required"`
	ID          *int64          `json:"id" validate:"required"`
	Number      *int            `json:"number" validate:"required"`
	PullRequest json.RawMessage `json:"pull_request"`
	Title       *string         `json:"title" validate:"required"`
	User        *rawUser        `json:"user" validate:"required"`
}

func (r *rawIssue) entity() (Issue, error) {
	createdAt, err := parseTimestamp("created_at", *r.CreatedAt)
	if err != nil {
		return Issue{}, err
	}
	return Issue{
		ID:            *r.ID,
		Number:        *r.Number,
		Title:         *r.Title,
		User:          r.User.entity(),
		CreatedAt:     createdAt,
		Body:          r.Body,
		IsPullRequest: isPresent(r.PullRequest),
	}, nil
}

type rawRepository struct {
	DefaultBranchRef *struct {
		Name *string `json:"name" validate:"required"`
	} `json:"defaultBranchRef" validate:"required"`
	Name          *string   `json:"name" validate:"required"`
	NameWithOwner *string   `json:"nameWithOwner" validate:"required"`
	Owner         *rawOwner `json:"owner" validate:"required"`
}

// repositoryJsonFields lists the fields requested from `gh repo view --json`.
const repositoryJsonFields = "owner,name,nameWithOwner,defaultBranchRef"

func (r *rawRepository) entity() (Repository, error) {
	return Repository{
		OwnerLogin:        *r.Owner.Login,
		Name:              *r.Name,
		NameWithOwner:     *r.NameWithOwner,
		DefaultBranchName: *r.DefaultBranchRef.Name,
	}, nil
}

type rawPullRequestBody struct {
	Body *string `json:"body"`
}

func (r *rawPullRequestBody) entity() (string, error) {
	if r.Body == nil {
		return "", nil
	}
	return *r.Body, nil
}

// DecodePullRequests decodes the output of the pulls endpoint. Concatenated
// pages, as printed by `gh api --paginate`, are merged in order.
func DecodePullRequests(data []byte) ([]PullRequest, error) {
	return decodeList(data, (*rawPullRequest).entity)
}

// DecodeIssues decodes the output of the issues endpoint, pull requests included.
func DecodeIssues(data []byte) ([]Issue, error) {
	return decodeList(data, (*rawIssue).entity)
}

// DecodeRepository decodes the output of `gh repo view --json`.
func DecodeRepository(data []byte) (Repository, error) {
	return decodeObject(data, "$", (*rawRepository).entity)
}

// DecodePullRequestBody decodes the output of `gh pr view --json body`.
func DecodePullRequestBody(data []byte) (string, error) {
	return decodeObject(data, "$", (*rawPullRequestBody).entity)
}

func decodeObject[R any, T any](data []byte, path string, toEntity func(*R) (T, error)) (T, error) {
	var zero T
	var raw R

	if kind := jsonKind(data); kind != "" && kind != "object" {
		return zero, &DecodingError{Path: path, Reason: "expected object, got " + kind, Fragment: truncate(string(bytes.TrimSpace(data)))}
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return zero, jsonError(data, path, err)
	}

	if err := validate.Struct(&raw); err != nil {
		return zero, validationError(data, path, err)
	}

	v, err := toEntity(&raw)
	if err != nil {
		var decErr *DecodingError
		if errors.As(err, &decErr) {
			decErr.Fragment = fragment(data, decErr.Path)
			decErr.Path = joinPath(path, decErr.Path)
		}
		return zero, err
	}
	return v, nil
}

func decodeList[R any, T any](data []byte, toEntity func(*R) (T, error)) ([]T, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var items []json.RawMessage
	pages := 0
	for {
		var page json.RawMessage
		err := dec.Decode(&page)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, jsonError(data, "$", err)
		}
		if kind := jsonKind(page); kind != "array" {
			return nil, &DecodingError{Path: "$", Reason: "expected array, got " + kind, Fragment: truncate(string(page))}
		}

		var pageItems []json.RawMessage
		if err := json.Unmarshal(page, &pageItems); err != nil {
			return nil, jsonError(page, "$", err)
		}
		items = append(items, pageItems...)
		pages++
	}
	if pages == 0 {
		return nil, &DecodingError{Path: "$", Reason: "empty document"}
	}

	result := make([]T, 0, len(items))
	for i, item := range items {
		v, err := decodeObject(item, fmt.Sprintf("$[%d]", i), toEntity)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

func jsonError(data []byte, path string, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return &DecodingError{
			Path:     path,
			Reason:   fmt.Sprintf("malformed JSON: %s", syntaxErr.Error()),
			Fragment: around(data, syntaxErr.Offset),
		}
	case errors.As(err, &typeErr):
		return &DecodingError{
			Path:     joinPath(path, typeErr.Field),
			Reason:   fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			Fragment: fragment(data, typeErr.Field),
		}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &DecodingError{Path: path, Reason: "malformed JSON: unexpected end of input", Fragment: truncate(string(data))}
	default:
		return &DecodingError{Path: path, Reason: err.Error(), Fragment: truncate(string(data))}
	}
}

func validationError(data []byte, path string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &DecodingError{Path: path, Reason: err.Error()}
	}

	fe := verrs[0]
	// Namespace is "<struct type>.<json path>"; drop the type name.
	_, field, _ := strings.Cut(fe.Namespace(), ".")

	reason := fmt.Sprintf("failed %q check", fe.Tag())
	if fe.Tag() == "required" {
		reason = "missing required field"
	}
	return &DecodingError{
		Path:     joinPath(path, field),
		Reason:   reason,
		Fragment: fragment(data, field),
	}
}

func parseTimestamp(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &DecodingError{Path: field, Reason: fmt.Sprintf("invalid timestamp %q", value)}
	}
	return t, nil
}

// jsonKind names the type of the JSON value in raw from its first byte, or
// returns "" when raw is blank.
func jsonKind(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '[':
		return "array"
	case '{':
		return "object"
	case 'n':
		return "null"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	}
	return "number"
}

// isPresent reports whether an optional raw field holds a non-null value.
func isPresent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func joinPath(base, field string) string {
	if field == "" {
		return base
	}
	return base + "." + field
}

// fragment returns the raw JSON at field, or at the closest enclosing value
// that exists.
func fragment(data []byte, field string) string {
	doc := string(data)
	for field != "" {
		if r := gjson.Get(doc, field); r.Exists() {
			return truncate(r.Raw)
		}
		i := strings.LastIndex(field, ".")
		if i < 0 {
			break
		}
		field = field[:i]
	}
	return truncate(strings.TrimSpace(doc))
}

func around(data []byte, offset int64) string {
	const radius = 40
	start := max(int(offset)-radius, 0)
	end := min(int(offset)+radius, len(data))
	if start >= end {
		return truncate(string(data))
	}
	return string(data[start:end])
}

// truncate cuts s to at most maxFragmentLen bytes on a rune boundary.
func truncate(s string) string {
	if len(s) <= maxFragmentLen {
		return s
	}
	end := maxFragmentLen
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end] + "..."
}
