package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ContentType tags the kind of intranet content a search index entry points to.
type ContentType string

const (
	ContentTypeAnnouncement ContentType = "announcement"
	ContentTypeTraining     ContentType = "training"
	ContentTypeManual       ContentType = "manual"
	ContentTypeChecklist    ContentType = "checklist"
	ContentTypeIdea         ContentType = "idea"
	ContentTypeCampaign     ContentType = "campaign"
	ContentTypeFeedPost     ContentType = "feed_post"
)

// AllContentTypes returns every searchable content type in indexing order.
func AllContentTypes() []ContentType {
	return []ContentType{
		ContentTypeAnnouncement,
		ContentTypeTraining,
		ContentTypeManual,
		ContentTypeChecklist,
		ContentTypeIdea,
		ContentTypeCampaign,
		ContentTypeFeedPost,
	}
}

// IsValid reports whether t is a known content type.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeAnnouncement, ContentTypeTraining, ContentTypeManual,
		ContentTypeChecklist, ContentTypeIdea, ContentTypeCampaign, ContentTypeFeedPost:
		return true
	}
	return false
}

// ParseContentType normalizes and validates a content type string.
func ParseContentType(value string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(value)))
	if !t.IsValid() {
		return "", NewDomainErrorWithCause(ErrCodeValidation, ErrInvalidContentType.Message, fmt.Errorf("%q", value))
	}
	return t, nil
}

// ParseContentTypes parses a filter list, dropping duplicates.
func ParseContentTypes(values []string) ([]ContentType, error) {
	if len(values) == 0 {
		return nil, nil
	}
	seen := make(map[ContentType]struct{}, len(values))
	out := make([]ContentType, 0, len(values))
	for _, v := range values {
		t, err := ParseContentType(v)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// Indexable is the narrow view of a source record the index builder works with.
type Indexable interface {
	ContentType() ContentType
	ContentID() string
	IndexText() string
	IndexMetadata() Metadata
}

// Metadata is the typed, per-content-type attribute set stored alongside an
// index entry. Every variant marshals to a JSON object.
type Metadata interface {
	MetadataType() ContentType
}

type AnnouncementMetadata struct {
	TargetRoles []string `json:"target_roles,omitempty"`
	TargetUnits []string `json:"target_units,omitempty"`
	Priority    string   `json:"priority,omitempty"`
}

func (AnnouncementMetadata) MetadataType() ContentType { return ContentTypeAnnouncement }

type TrainingMetadata struct {
	Category        string   `json:"category,omitempty"`
	TargetRoles     []string `json:"target_roles,omitempty"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
}

func (TrainingMetadata) MetadataType() ContentType { return ContentTypeTraining }

type ManualMetadata struct {
	Category string `json:"category,omitempty"`
	Version  string `json:"version,omitempty"`
}

func (ManualMetadata) MetadataType() ContentType { return ContentTypeManual }

type ChecklistMetadata struct {
	Category    string   `json:"category,omitempty"`
	TargetRoles []string `json:"target_roles,omitempty"`
	TargetUnits []string `json:"target_units,omitempty"`
}

func (ChecklistMetadata) MetadataType() ContentType { return ContentTypeChecklist }

type IdeaMetadata struct {
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Status   string   `json:"status,omitempty"`
}

func (IdeaMetadata) MetadataType() ContentType { return ContentTypeIdea }

type CampaignMetadata struct {
	TargetRoles []string   `json:"target_roles,omitempty"`
	TargetUnits []string   `json:"target_units,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

func (CampaignMetadata) MetadataType() ContentType { return ContentTypeCampaign }

type FeedPostMetadata struct {
	AuthorID string   `json:"author_id,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func (FeedPostMetadata) MetadataType() ContentType { return ContentTypeFeedPost }

// DecodeMetadata decodes stored JSON into the variant matching contentType.
func DecodeMetadata(contentType ContentType, raw json.RawMessage) (Metadata, error) {
	var md Metadata
	switch contentType {
	case ContentTypeAnnouncement:
		md = &AnnouncementMetadata{}
	case ContentTypeTraining:
		md = &TrainingMetadata{}
	case ContentTypeManual:
		md = &ManualMetadata{}
	case ContentTypeChecklist:
		md = &ChecklistMetadata{}
	case ContentTypeIdea:
		md = &IdeaMetadata{}
	case ContentTypeCampaign:
		md = &CampaignMetadata{}
	case ContentTypeFeedPost:
		md = &FeedPostMetadata{}
	default:
		return nil, ErrInvalidContentType
	}
	if len(raw) == 0 {
		return md, nil
	}
	if err := json.Unmarshal(raw, md); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", contentType, err)
	}
	return md, nil
}

// Announcement is a published corporate communication.
type Announcement struct {
	ID          string
	Title       string
	Summary     string
	Content     string
	Priority    string
	TargetRoles []string
	TargetUnits []string
}

func (a *Announcement) ContentType() ContentType { return ContentTypeAnnouncement }
func (a *Announcement) ContentID() string        { return a.ID }
func (a *Announcement) IndexText() string        { return JoinText(a.Title, a.Summary, a.Content) }
func (a *Announcement) IndexMetadata() Metadata {
	return AnnouncementMetadata{TargetRoles: a.TargetRoles, TargetUnits: a.TargetUnits, Priority: a.Priority}
}

// Training is a course available in the training catalog.
type Training struct {
	ID              string
	Title           string
	Description     string
	Content         string
	Category        string
	DurationMinutes int
	TargetRoles     []string
}

func (t *Training) ContentType() ContentType { return ContentTypeTraining }
func (t *Training) ContentID() string        { return t.ID }
func (t *Training) IndexText() string        { return JoinText(t.Title, t.Description, t.Content) }
func (t *Training) IndexMetadata() Metadata {
	return TrainingMetadata{Category: t.Category, TargetRoles: t.TargetRoles, DurationMinutes: t.DurationMinutes}
}

// Manual is a procedure or policy document.
type Manual struct {
	ID          string
	Title       string
	Description string
	Content     string
	Category    string
	Version     string
}

func (m *Manual) ContentType() ContentType { return ContentTypeManual }
func (m *Manual) ContentID() string        { return m.ID }
func (m *Manual) IndexText() string        { return JoinText(m.Title, m.Description, m.Content) }
func (m *Manual) IndexMetadata() Metadata {
	return ManualMetadata{Category: m.Category, Version: m.Version}
}

// Checklist is an operational checklist template.
type Checklist struct {
	ID          string
	Title       string
	Description string
	Category    string
	TargetRoles []string
	TargetUnits []string
}

func (c *Checklist) ContentType() ContentType { return ContentTypeChecklist }
func (c *Checklist) ContentID() string        { return c.ID }
func (c *Checklist) IndexText() string        { return JoinText(c.Title, c.Description) }
func (c *Checklist) IndexMetadata() Metadata {
	return ChecklistMetadata{Category: c.Category, TargetRoles: c.TargetRoles, TargetUnits: c.TargetUnits}
}

// Idea is an employee suggestion from the ideas board.
type Idea struct {
	ID          string
	Title       string
	Description string
	Category    string
	Status      string
	Tags        []string
}

func (i *Idea) ContentType() ContentType { return ContentTypeIdea }
func (i *Idea) ContentID() string        { return i.ID }
func (i *Idea) IndexText() string        { return JoinText(i.Title, i.Description) }
func (i *Idea) IndexMetadata() Metadata {
	return IdeaMetadata{Category: i.Category, Tags: i.Tags, Status: i.Status}
}

// Campaign is an internal engagement campaign.
type Campaign struct {
	ID          string
	Title       string
	Description string
	Content     string
	TargetRoles []string
	TargetUnits []string
	StartsAt    *time.Time
	EndsAt      *time.Time
}

func (c *Campaign) ContentType() ContentType { return ContentTypeCampaign }
func (c *Campaign) ContentID() string        { return c.ID }
func (c *Campaign) IndexText() string        { return JoinText(c.Title, c.Description, c.Content) }
func (c *Campaign) IndexMetadata() Metadata {
	return CampaignMetadata{TargetRoles: c.TargetRoles, TargetUnits: c.TargetUnits, StartsAt: c.StartsAt, EndsAt: c.EndsAt}
}

// FeedPost is a post on the mural feed. Only pinned posts are searchable.
type FeedPost struct {
	ID       string
	AuthorID string
	Content  string
	Tags     []string
}

func (p *FeedPost) ContentType() ContentType { return ContentTypeFeedPost }
func (p *FeedPost) ContentID() string        { return p.ID }
func (p *FeedPost) IndexText() string        { return JoinText(p.Content) }
func (p *FeedPost) IndexMetadata() Metadata {
	return FeedPostMetadata{AuthorID: p.AuthorID, Tags: p.Tags}
}

// JoinText concatenates the non-empty fields with a single space.
func JoinText(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		parts = append(parts, f)
	}
	return strings.Join(parts, " ")
}
