// Package views renders the public site's HTML pages as templ components.
package views

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/inkwellhq/inkwell/internal/services/content"
)

// Layout wraps a page body with the shared document shell. SEO title and
// description land in the head.
func Layout(title, description string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
`, html.EscapeString(title)); err != nil {
			return err
		}
		if description != "" {
			if _, err := fmt.Fprintf(w, "<meta name=\"description\" content=\"%s\">\n", html.EscapeString(description)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</head>\n<body>\n<main>\n"); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</main>\n</body>\n</html>\n")
		return err
	})
}

// HomePage lists published posts, newest first.
func HomePage(posts []content.Post) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<h1>Blog</h1>\n<ul class=\"posts\">\n"); err != nil {
			return err
		}
		for _, post := range posts {
			if _, err := fmt.Fprintf(w,
				"<li><a href=\"/blog/%s\">%s</a><p>%s</p><small>%s</small></li>\n",
				html.EscapeString(post.Slug),
				html.EscapeString(post.Title),
				html.EscapeString(post.Excerpt),
				html.EscapeString(postMeta(post))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</ul>\n")
		return err
	})
}

// PostPage renders one published post.
func PostPage(post content.Post) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<article>\n<h1>%s</h1>\n<small>%s</small>\n",
			html.EscapeString(post.Title), html.EscapeString(postMeta(post))); err != nil {
			return err
		}
		if post.CoverImageURL != "" {
			if _, err := fmt.Fprintf(w, "<img src=\"%s\" alt=\"\">\n", html.EscapeString(post.CoverImageURL)); err != nil {
				return err
			}
		}
		// The body is authored Markdown; it renders client-side. Escaping here
		// keeps untrusted markup inert.
		if _, err := fmt.Fprintf(w, "<div class=\"post-body\" data-format=\"markdown\">%s</div>\n</article>\n",
			html.EscapeString(post.Body)); err != nil {
			return err
		}
		return nil
	})
}

// NotFoundPage is the shared 404 body.
func NotFoundPage() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<h1>Page not found</h1>\n<p><a href=\"/\">Back to the blog</a></p>\n")
		return err
	})
}

func postMeta(post content.Post) string {
	meta := fmt.Sprintf("%d min read", post.ReadTimeMinutes)
	if !post.PublishedAt.IsZero() {
		meta = post.PublishedAt.UTC().Format("January 2, 2006") + " · " + meta
	}
	return meta
}

// PageTitle picks the SEO title when one is set.
func PageTitle(post content.Post) string {
	if post.SEOTitle != "" {
		return post.SEOTitle
	}
	return post.Title
}

// PageDescription picks the SEO description, falling back to the excerpt.
func PageDescription(post content.Post) string {
	if post.SEODescription != "" {
		return post.SEODescription
	}
	return post.Excerpt
}
