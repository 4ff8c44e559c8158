package notify

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/fsotosa-ops/meridian-bdr/internal/model"
	"github.com/fsotosa-ops/meridian-bdr/pkg/notion"
)

// Property names of the digest database.
const (
	PropTitle     = "Name"
	PropDate      = "Date"
	PropTotal     = "Evaluated"
	PropQualified = "Qualified"
	PropDiscarded = "Discarded"
	PropSheet     = "Sheet"
)

// NotionNotifier archives each digest as a page in a Notion database.
type NotionNotifier struct {
	client     notion.Client
	databaseID string
}

// NewNotion creates a NotionNotifier writing into databaseID.
func NewNotion(client notion.Client, databaseID string) *NotionNotifier {
	return &NotionNotifier{client: client, databaseID: databaseID}
}

// Notify implements Notifier.
func (n *NotionNotifier) Notify(ctx context.Context, digest model.Digest) error {
	if _, err := n.client.CreatePage(ctx, digestPage(n.databaseID, digest)); err != nil {
		return eris.Wrap(err, "notify: notion digest page")
	}
	return nil
}

func digestPage(databaseID string, d model.Digest) *notionapi.PageCreateRequest {
	props := notionapi.Properties{
		PropTitle:     notion.Title("Digest " + d.CreatedAt.Format("2006-01-02 15:04")),
		PropDate:      notion.Date(d.CreatedAt),
		PropTotal:     notion.Number(float64(d.Total)),
		PropQualified: notion.Number(float64(d.Qualified)),
		PropDiscarded: notion.Number(float64(d.Discarded)),
	}
	if d.SheetURL != "" {
		props[PropSheet] = notion.URL(d.SheetURL)
	}

	children := []notionapi.Block{notion.Paragraph(Subject(d))}
	if len(d.TopLeads) == 0 {
		children = append(children, notion.Paragraph("No qualified leads this run."))
	}
	for _, l := range d.TopLeads {
		children = append(children, notion.Bullet(fmt.Sprintf("%d · %s, %s at %s: %s", l.Score, l.Name, l.Role, l.Company, l.Reason)))
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: props,
		Children:   children,
	}
}
