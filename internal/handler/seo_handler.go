package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"comuna-portal/internal/service"
)

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	businesses *service.BusinessService
	site       *service.SiteService
	baseURL    string
}

// NewSeoHandler creates a new SeoHandler.
func NewSeoHandler(businesses *service.BusinessService, site *service.SiteService, baseURL string) *SeoHandler {
	return &SeoHandler{businesses: businesses, site: site, baseURL: baseURL}
}

// robotsHandler serves a static robots.txt file.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "Disallow: /admin/")
	fmt.Fprintln(w, "Disallow: /ciudadano/")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Sitemap: "+h.baseURL+"/sitemap.xml")
}

const (
	sitemapDateFormat = "2006-01-02"
	sitemapLimit      = 500
)

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler generates a sitemap of the approved business pages and
// the site news articles.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	businesses, err := h.businesses.Recent(r.Context(), sitemapLimit)
	if err != nil {
		http.Error(w, "Failed to retrieve businesses for sitemap", http.StatusInternalServerError)
		return
	}
	news, err := h.site.AllNews(r.Context())
	if err != nil {
		http.Error(w, "Failed to retrieve news for sitemap", http.StatusInternalServerError)
		return
	}

	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, 0, len(businesses)+len(news)),
	}
	for _, b := range businesses {
		sitemap.URLs = append(sitemap.URLs, sitemapURL{
			Loc:     fmt.Sprintf("%s/negocios/%d", h.baseURL, b.ID),
			LastMod: b.UpdatedAt.Format(sitemapDateFormat),
		})
	}
	for _, n := range news {
		sitemap.URLs = append(sitemap.URLs, sitemapURL{
			Loc:     fmt.Sprintf("%s/noticia/%d", h.baseURL, n.ID),
			LastMod: n.Date.Format(sitemapDateFormat),
		})
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		http.Error(w, "Failed to generate sitemap XML", http.StatusInternalServerError)
		return
	}
}
