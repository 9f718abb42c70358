package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// queryParams are the inputs of the quantity and forecast endpoints.
type queryParams struct {
	Company   string `json:"company" form:"company"`
	FromDate  string `json:"from_date" form:"from_date"`
	ToDate    string `json:"to_date" form:"to_date"`
	Frequency string `json:"frequency" form:"frequency"`
}

func (p queryParams) complete(withFrequency bool) bool {
	if p.Company == "" || p.FromDate == "" || p.ToDate == "" {
		return false
	}
	return !withFrequency || p.Frequency != ""
}

func (p queryParams) trimmed() queryParams {
	return queryParams{
		Company:   strings.TrimSpace(p.Company),
		FromDate:  strings.TrimSpace(p.FromDate),
		ToDate:    strings.TrimSpace(p.ToDate),
		Frequency: strings.TrimSpace(p.Frequency),
	}
}

// bindQueryParams reads parameters from the query string on GET, and from a JSON body, form
// fields, or a JSON document sent as the first form key on POST.
func bindQueryParams(c *gin.Context, withFrequency bool) (queryParams, error) {
	var p queryParams

	if c.Request.Method == http.MethodGet {
		if err := c.ShouldBindQuery(&p); err != nil {
			return p, err
		}
		return p.trimmed(), nil
	}

	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(&p); err != nil {
			return p, err
		}
		return p.trimmed(), nil
	}

	p = queryParams{
		Company:   c.PostForm("company"),
		FromDate:  c.PostForm("from_date"),
		ToDate:    c.PostForm("to_date"),
		Frequency: c.PostForm("frequency"),
	}
	if !p.complete(withFrequency) {
		if raw, ok := firstFormKey(c); ok {
			var embedded queryParams
			if err := json.Unmarshal([]byte(raw), &embedded); err == nil {
				p = embedded
			}
		}
	}
	if !p.complete(withFrequency) {
		// Fall back to the query string so POST /forecast?company=... also works.
		var fromQuery queryParams
		if err := c.ShouldBindQuery(&fromQuery); err == nil && fromQuery.complete(withFrequency) {
			p = fromQuery
		}
	}
	return p.trimmed(), nil
}

// firstFormKey returns the first urlencoded form key, which some clients use to carry a JSON body.
func firstFormKey(c *gin.Context) (string, bool) {
	if err := c.Request.ParseForm(); err != nil {
		return "", false
	}
	for key := range c.Request.PostForm {
		if strings.HasPrefix(strings.TrimSpace(key), "{") || strings.HasPrefix(strings.TrimSpace(key), "[") {
			return key, true
		}
	}
	return "", false
}
