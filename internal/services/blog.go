package services

import (
	"context"
	"fmt"
	"pamekids-service/internal/domain"
	"pamekids-service/internal/platform/obs"
	"pamekids-service/internal/ports"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const DefaultBlogCollection = "blogPosts"

type BlogInput struct {
	Title       string
	Slug        string
	Excerpt     string
	Content     string
	CoverImage  string
	LocationIDs []string
	Published   bool
}

// BlogPatch is a partial update; nil fields are left untouched.
type BlogPatch struct {
	Title       *string
	Slug        *string
	Excerpt     *string
	Content     *string
	CoverImage  *string
	LocationIDs []string
	Published   *bool
}

type BlogService struct {
	Store      ports.DocumentStore
	Collection string
	Now        func() time.Time
	NewID      func() string
}

func NewBlogService(store ports.DocumentStore) *BlogService {
	return &BlogService{
		Store:      store,
		Collection: DefaultBlogCollection,
		Now:        time.Now,
		NewID:      uuid.NewString,
	}
}

func (s *BlogService) Create(ctx context.Context, in BlogInput) (_ domain.BlogPost, err error) {
	defer obs.Time(ctx, "blog.Create")(&err)

	post := domain.BlogPost{
		ID:          s.NewID(),
		Title:       strings.TrimSpace(in.Title),
		Slug:        strings.TrimSpace(in.Slug),
		Excerpt:     strings.TrimSpace(in.Excerpt),
		Content:     in.Content,
		CoverImage:  strings.TrimSpace(in.CoverImage),
		LocationIDs: append([]string(nil), in.LocationIDs...),
		Published:   in.Published,
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	if post.Published {
		at := s.Now().UTC()
		post.PublishedAt = &at
	}
	if err := domain.ValidateStruct(post); err != nil {
		return domain.BlogPost{}, fmt.Errorf("create blog post: %w", err)
	}
	if err := s.ensureSlugFree(ctx, post.Slug, ""); err != nil {
		return domain.BlogPost{}, fmt.Errorf("create blog post: %w", err)
	}

	if err := s.Store.Set(ctx, s.Collection, post.ID, blogRecord(post), false); err != nil {
		return domain.BlogPost{}, fmt.Errorf("create blog post: write: %w", err)
	}
	return s.Get(ctx, post.ID)
}

func (s *BlogService) Update(ctx context.Context, id string, patch BlogPatch) (_ domain.BlogPost, err error) {
	defer obs.Time(ctx, "blog.Update")(&err)

	post, err := s.Get(ctx, id)
	if err != nil {
		return domain.BlogPost{}, fmt.Errorf("update blog post: %w", err)
	}
	oldSlug := post.Slug

	if patch.Title != nil {
		post.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Slug != nil {
		post.Slug = strings.TrimSpace(*patch.Slug)
	}
	if patch.Excerpt != nil {
		post.Excerpt = strings.TrimSpace(*patch.Excerpt)
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.CoverImage != nil {
		post.CoverImage = strings.TrimSpace(*patch.CoverImage)
	}
	if patch.LocationIDs != nil {
		post.LocationIDs = append([]string(nil), patch.LocationIDs...)
	}
	if patch.Published != nil {
		if *patch.Published && !post.Published {
			at := s.Now().UTC()
			post.PublishedAt = &at
		}
		if !*patch.Published {
			post.PublishedAt = nil
		}
		post.Published = *patch.Published
	}

	if err := domain.ValidateStruct(post); err != nil {
		return domain.BlogPost{}, fmt.Errorf("update blog post %q: %w", id, err)
	}
	if post.Slug != oldSlug {
		if err := s.ensureSlugFree(ctx, post.Slug, id); err != nil {
			return domain.BlogPost{}, fmt.Errorf("update blog post %q: %w", id, err)
		}
	}

	if err := s.Store.Set(ctx, s.Collection, id, blogRecord(post), true); err != nil {
		return domain.BlogPost{}, fmt.Errorf("update blog post %q: write: %w", id, err)
	}
	return s.Get(ctx, id)
}

func (s *BlogService) Delete(ctx context.Context, id string) error {
	if _, err := s.Store.Get(ctx, s.Collection, id); err != nil {
		return fmt.Errorf("delete blog post %q: %w", id, err)
	}
	if err := s.Store.Delete(ctx, s.Collection, id); err != nil {
		return fmt.Errorf("delete blog post %q: %w", id, err)
	}
	return nil
}

func (s *BlogService) Get(ctx context.Context, id string) (domain.BlogPost, error) {
	if strings.TrimSpace(id) == "" {
		return domain.BlogPost{}, domain.Invalid("id", "is required")
	}
	doc, err := s.Store.Get(ctx, s.Collection, id)
	if err != nil {
		return domain.BlogPost{}, fmt.Errorf("get blog post %q: %w", id, err)
	}
	return blogFromDocument(doc), nil
}

func (s *BlogService) GetBySlug(ctx context.Context, slug string) (domain.BlogPost, error) {
	docs, err := s.Store.FindBy(ctx, s.Collection, "slug", slug)
	if err != nil {
		return domain.BlogPost{}, fmt.Errorf("get blog post by slug %q: %w", slug, err)
	}
	if len(docs) == 0 {
		return domain.BlogPost{}, fmt.Errorf("blog post with slug %q: %w", slug, domain.ErrNotFound)
	}
	return blogFromDocument(docs[0]), nil
}

// List returns posts newest-published first; drafts follow, newest-created first.
func (s *BlogService) List(ctx context.Context, publishedOnly bool) ([]domain.BlogPost, error) {
	docs, err := s.Store.GetAll(ctx, s.Collection)
	if err != nil {
		return nil, fmt.Errorf("list blog posts: %w", err)
	}

	posts := make([]domain.BlogPost, 0, len(docs))
	for _, d := range docs {
		p := blogFromDocument(d)
		if publishedOnly && !p.Published {
			continue
		}
		posts = append(posts, p)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if (a.PublishedAt == nil) != (b.PublishedAt == nil) {
			return a.PublishedAt != nil
		}
		if a.PublishedAt != nil && !a.PublishedAt.Equal(*b.PublishedAt) {
			return a.PublishedAt.After(*b.PublishedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return posts, nil
}

func (s *BlogService) ensureSlugFree(ctx context.Context, slug, selfID string) error {
	docs, err := s.Store.FindBy(ctx, s.Collection, "slug", slug)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	for _, d := range docs {
		if d.ID != selfID {
			return domain.Invalid("slug", fmt.Sprintf("%q is already used", slug))
		}
	}
	return nil
}

// Slugify builds a URL slug: folded letters and digits joined by single dashes.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range foldText(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

func blogRecord(p domain.BlogPost) map[string]any {
	ids := make([]any, 0, len(p.LocationIDs))
	for _, id := range p.LocationIDs {
		ids = append(ids, id)
	}
	rec := map[string]any{
		"title":       p.Title,
		"slug":        p.Slug,
		"excerpt":     p.Excerpt,
		"content":     p.Content,
		"coverImage":  p.CoverImage,
		"locationIds": ids,
		"published":   p.Published,
		"publishedAt": nil,
	}
	if p.PublishedAt != nil {
		rec["publishedAt"] = p.PublishedAt.UTC().Format(time.RFC3339Nano)
	}
	return rec
}

func blogFromDocument(doc ports.Document) domain.BlogPost {
	d := doc.Data
	p := domain.BlogPost{
		ID:          doc.ID,
		Title:       asString(d["title"]),
		Slug:        asString(d["slug"]),
		Excerpt:     asString(d["excerpt"]),
		Content:     asString(d["content"]),
		CoverImage:  asString(d["coverImage"]),
		LocationIDs: asStrings(d["locationIds"]),
		Published:   asBool(d["published"]),
		CreatedAt:   asTime(d["createdAt"]),
		UpdatedAt:   asTime(d["updatedAt"]),
	}
	if at := asTime(d["publishedAt"]); !at.IsZero() {
		p.PublishedAt = &at
	}
	return p
}
