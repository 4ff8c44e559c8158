package notify

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
)

type mockNotionClient struct {
	mock.Mock
}

func (m *mockNotionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func TestNotion_Notify(t *testing.T) {
	mc := new(mockNotionClient)
	var req *notionapi.PageCreateRequest
	mc.On("CreatePage", mock.Anything, mock.AnythingOfType("*notionapi.PageCreateRequest")).
		Run(func(args mock.Arguments) { req = args.Get(1).(*notionapi.PageCreateRequest) }).
		Return(&notionapi.Page{ID: "page-1"}, nil)

	require.NoError(t, NewNotion(mc, "db-digests").Notify(context.Background(), Sample(digestAt, "https://sheet")))
	mc.AssertExpectations(t)

	require.NotNil(t, req)
	assert.Equal(t, notionapi.DatabaseID("db-digests"), req.Parent.DatabaseID)

	title, ok := req.Properties[PropTitle].(notionapi.TitleProperty)
	require.True(t, ok)
	assert.Equal(t, "Digest 2026-05-04 10:30", title.Title[0].Text.Content)

	qualified, ok := req.Properties[PropQualified].(notionapi.NumberProperty)
	require.True(t, ok)
	assert.InDelta(t, 2, qualified.Number, 0)

	sheet, ok := req.Properties[PropSheet].(notionapi.URLProperty)
	require.True(t, ok)
	assert.Equal(t, "https://sheet", sheet.URL)

	// Subject paragraph plus one bullet per top lead.
	require.Len(t, req.Children, 3)
	bullet, ok := req.Children[1].(notionapi.BulletedListItemBlock)
	require.True(t, ok)
	assert.Contains(t, bullet.BulletedListItem.RichText[0].Text.Content, "88 · Ana Torres")
}

func TestNotion_NoLeadsNoSheet(t *testing.T) {
	req := digestPage("db", model.Digest{Total: 1, Discarded: 1, CreatedAt: digestAt})
	_, hasSheet := req.Properties[PropSheet]
	assert.False(t, hasSheet)
	assert.Len(t, req.Children, 2)
}

func TestNotion_Error(t *testing.T) {
	mc := new(mockNotionClient)
	mc.On("CreatePage", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	err := NewNotion(mc, "db").Notify(context.Background(), Sample(digestAt, ""))
	assert.ErrorContains(t, err, "notify: notion digest page")
}
