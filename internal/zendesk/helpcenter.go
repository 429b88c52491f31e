package zendesk

import (
	"context"
	"fmt"
)

// Section is a help-center section.
type Section struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Article is a help-center article trimmed to what agents cite.
type Article struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	UpdatedAt string `json:"updated_at"`
	URL       string `json:"url"`
}

// SectionArticles groups a section's metadata with its articles.
type SectionArticles struct {
	SectionID   int64     `json:"section_id"`
	Description string    `json:"description"`
	Articles    []Article `json:"articles"`
}

// KnowledgeBase maps section name to its articles.
type KnowledgeBase map[string]SectionArticles

// ListSections fetches all help-center sections.
func (c *Client) ListSections(ctx context.Context) ([]Section, error) {
	var resp struct {
		Sections []Section `json:"sections"`
	}
	if err := c.get(ctx, "/help_center/sections.json", nil, &resp); err != nil {
		return nil, fmt.Errorf("list help center sections: %w", err)
	}
	return resp.Sections, nil
}

// ListSectionArticles fetches all articles within a section.
func (c *Client) ListSectionArticles(ctx context.Context, sectionID int64) ([]Article, error) {
	var resp struct {
		Articles []struct {
			ID        int64  `json:"id"`
			Title     string `json:"title"`
			Body      string `json:"body"`
			UpdatedAt string `json:"updated_at"`
			HTMLURL   string `json:"html_url"`
		} `json:"articles"`
	}
	path := fmt.Sprintf("/help_center/sections/%d/articles.json", sectionID)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list articles for section %d: %w", sectionID, err)
	}

	articles := make([]Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		articles = append(articles, Article{
			ID:        a.ID,
			Title:     a.Title,
			Body:      a.Body,
			UpdatedAt: a.UpdatedAt,
			URL:       a.HTMLURL,
		})
	}
	return articles, nil
}

// FetchKnowledgeBase walks every section and collects its articles.
func (c *Client) FetchKnowledgeBase(ctx context.Context) (KnowledgeBase, error) {
	sections, err := c.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch knowledge base: %w", err)
	}

	kb := make(KnowledgeBase, len(sections))
	for _, section := range sections {
		articles, err := c.ListSectionArticles(ctx, section.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch knowledge base: %w", err)
		}
		kb[section.Name] = SectionArticles{
			SectionID:   section.ID,
			Description: section.Description,
			Articles:    articles,
		}
	}
	return kb, nil
}
