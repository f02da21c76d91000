package handlers

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// likeEscaper makes LIKE wildcards in search text match literally. The task
// queries declare backslash as the escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type listQueryParams struct {
	Limit   int
	Offset  int
	Search  string
	Pattern string
}

func parseListQueryParams(
	rawLimit string,
	rawOffset string,
	rawSearch string,
	defaultLimit int,
	maxLimit int,
) listQueryParams {
	limit := defaultLimit
	if parsedLimit, err := strconv.Atoi(strings.TrimSpace(rawLimit)); err == nil && parsedLimit > 0 {
		limit = parsedLimit
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	offset := 0
	if parsedOffset, err := strconv.Atoi(strings.TrimSpace(rawOffset)); err == nil && parsedOffset >= 0 {
		offset = parsedOffset
	}

	search := strings.TrimSpace(rawSearch)
	pattern := ""
	if search != "" {
		pattern = "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
	}

	return listQueryParams{
		Limit:   limit,
		Offset:  offset,
		Search:  search,
		Pattern: pattern,
	}
}

// pageLinks returns the listing URLs of the neighbouring pages, or "" where
// no such page exists.
func (p listQueryParams) pageLinks(total int) (prev string, next string) {
	if p.Offset > 0 {
		prevOffset := p.Offset - p.Limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		prev = p.pageURL(prevOffset)
	}
	if p.Offset < total-p.Limit {
		next = p.pageURL(p.Offset + p.Limit)
	}
	return prev, next
}

func (p listQueryParams) pageURL(offset int) string {
	query := url.Values{}
	if p.Search != "" {
		query.Set("search", p.Search)
	}
	if p.Limit != defaultPageLimit {
		query.Set("limit", strconv.Itoa(p.Limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	if len(query) == 0 {
		return "/"
	}
	return "/?" + query.Encode()
}
