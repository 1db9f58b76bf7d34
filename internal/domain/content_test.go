package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentType(t *testing.T) {
	tests := []struct {
		input   string
		want    ContentType
		wantErr bool
	}{
		{"announcement", ContentTypeAnnouncement, false},
		{" Training ", ContentTypeTraining, false},
		{"FEED_POST", ContentTypeFeedPost, false},
		{"knowledge", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseContentType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidContentType))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseContentTypes_Deduplicates(t *testing.T) {
	got, err := ParseContentTypes([]string{"training", "manual", "TRAINING"})
	require.NoError(t, err)
	assert.Equal(t, []ContentType{ContentTypeTraining, ContentTypeManual}, got)

	got, err = ParseContentTypes(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAllContentTypes_AreValid(t *testing.T) {
	all := AllContentTypes()
	assert.Len(t, all, 7)
	for _, ct := range all {
		assert.True(t, ct.IsValid(), ct)
	}
}

func TestJoinText_SkipsEmptyFields(t *testing.T) {
	assert.Equal(t, "Title Body", JoinText("Title", "", "  ", "Body"))
	assert.Equal(t, "", JoinText("", " "))
}

func TestIndexable_Variants(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		item     Indexable
		wantType ContentType
		wantText string
		wantMeta Metadata
	}{
		{
			name:     "announcement",
			item:     &Announcement{ID: "a1", Title: "Nova política", Content: "Horários", TargetRoles: []string{"gestor"}},
			wantType: ContentTypeAnnouncement,
			wantText: "Nova política Horários",
			wantMeta: AnnouncementMetadata{TargetRoles: []string{"gestor"}},
		},
		{
			name:     "training",
			item:     &Training{ID: "t1", Title: "Integração", Description: "Boas-vindas", Category: "onboarding"},
			wantType: ContentTypeTraining,
			wantText: "Integração Boas-vindas",
			wantMeta: TrainingMetadata{Category: "onboarding"},
		},
		{
			name:     "checklist",
			item:     &Checklist{ID: "c1", Title: "Abertura de loja", TargetUnits: []string{"sp-01"}},
			wantType: ContentTypeChecklist,
			wantText: "Abertura de loja",
			wantMeta: ChecklistMetadata{TargetUnits: []string{"sp-01"}},
		},
		{
			name:     "campaign",
			item:     &Campaign{ID: "k1", Title: "Campanha do agasalho", StartsAt: &start},
			wantType: ContentTypeCampaign,
			wantText: "Campanha do agasalho",
			wantMeta: CampaignMetadata{StartsAt: &start},
		},
		{
			name:     "feed post",
			item:     &FeedPost{ID: "p1", AuthorID: "u1", Content: "Fixado no mural"},
			wantType: ContentTypeFeedPost,
			wantText: "Fixado no mural",
			wantMeta: FeedPostMetadata{AuthorID: "u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.item.ContentType())
			assert.Equal(t, tt.wantText, tt.item.IndexText())
			assert.Equal(t, tt.wantMeta, tt.item.IndexMetadata())
			assert.Equal(t, tt.wantType, tt.item.IndexMetadata().MetadataType())
		})
	}
}

func TestDecodeMetadata(t *testing.T) {
	raw, err := json.Marshal(IdeaMetadata{Category: "processos", Tags: []string{"loja"}, Status: "approved"})
	require.NoError(t, err)

	md, err := DecodeMetadata(ContentTypeIdea, raw)
	require.NoError(t, err)
	idea, ok := md.(*IdeaMetadata)
	require.True(t, ok)
	assert.Equal(t, "processos", idea.Category)
	assert.Equal(t, []string{"loja"}, idea.Tags)

	_, err = DecodeMetadata(ContentType("unknown"), raw)
	assert.ErrorIs(t, err, ErrInvalidContentType)

	md, err = DecodeMetadata(ContentTypeManual, nil)
	require.NoError(t, err)
	assert.Equal(t, &ManualMetadata{}, md)
}
