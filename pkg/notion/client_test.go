package notion

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientReturnsClient(t *testing.T) {
	c := NewClient("test-token")
	assert.NotNil(t, c)
}

func TestWithRateLimit(t *testing.T) {
	c := NewClient("t", WithRateLimit(10)).(*notionClient)
	require.NotNil(t, c.limiter)
	assert.InDelta(t, 10, float64(c.limiter.Limit()), 0.001)
	assert.Equal(t, 10, c.limiter.Burst())

	c = NewClient("t", WithRateLimit(0)).(*notionClient)
	assert.Nil(t, c.limiter)
	assert.NoError(t, c.wait(context.Background()))
}

func TestCreatePage_RateLimitCancelled(t *testing.T) {
	c := NewClient("t", WithRateLimit(0.001)).(*notionClient)
	// Drain the single burst token so the next wait blocks.
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	page, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{})
	assert.Nil(t, page)
	assert.ErrorContains(t, err, "notion: rate limit")
}

func TestProperties(t *testing.T) {
	title := Title("Digest")
	assert.Equal(t, notionapi.PropertyTypeTitle, title.Type)
	assert.Equal(t, "Digest", title.Title[0].Text.Content)

	text := Text("body")
	assert.Equal(t, "body", text.RichText[0].Text.Content)

	assert.InDelta(t, 7, Number(7).Number, 0)
	assert.Equal(t, "https://x", URL("https://x").URL)

	at := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	d := Date(at)
	require.NotNil(t, d.Date)
	assert.True(t, time.Time(*d.Date.Start).Equal(at))
}

func TestBlocks(t *testing.T) {
	p, ok := Paragraph("hello").(notionapi.ParagraphBlock)
	require.True(t, ok)
	assert.Equal(t, "hello", p.Paragraph.RichText[0].Text.Content)

	b, ok := Bullet("item").(notionapi.BulletedListItemBlock)
	require.True(t, ok)
	assert.Equal(t, notionapi.BlockTypeBulletedListItem, b.Type)
	assert.Equal(t, "item", b.BulletedListItem.RichText[0].Text.Content)
}
