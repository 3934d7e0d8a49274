package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

const maxSlugLen = 100

// Slugify превращает произвольный текст в [a-z0-9-] без диакритики
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = maxSlugLen
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = string(buf)

	s = reNonAlnum.ReplaceAllString(s, "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if utf8.RuneCountInString(s) > maxLen {
		s = strings.Trim(string([]rune(s)[:maxLen]), "-")
	}
	if s == "" {
		s = "schedule"
	}
	return s
}

// textKey - нормализованный текст для поиска дублей
func textKey(text string) string {
	return Slugify(text, 255)
}

// uniqueSlug добавляет суффикс -2, -3, ... пока slug занят
func uniqueSlug(ctx context.Context, schedules ScheduleStore, title string) (string, error) {
	base := Slugify(title, maxSlugLen-4)
	slug := base
	for i := 2; i < 1000; i++ {
		exists, err := schedules.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q", base)
}
