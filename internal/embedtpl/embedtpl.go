// Package embedtpl renders stored embed templates with per-event placeholder
// substitution. Templates are authored in the web console and stored as JSON
// on the guild configuration record.
package embedtpl

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Discord limits on embed fields.
const (
	maxFields     = 25
	maxFieldName  = 256
	maxFieldValue = 1024
)

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type Template struct {
	Title        string  `json:"title,omitempty"`
	Description  string  `json:"description,omitempty"`
	Color        *int    `json:"color,omitempty"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	ImageURL     string  `json:"imageUrl,omitempty"`
	Footer       string  `json:"footer,omitempty"`
	Fields       []Field `json:"fields,omitempty"`
}

// Context carries the values substituted for template placeholders.
type Context struct {
	UserMention string
	Username    string
	ServerName  string
	MemberCount int
}

// Apply substitutes {user}, {username}, {server} and {memberCount} in s.
func (c Context) Apply(s string) string {
	r := strings.NewReplacer(
		"{user}", c.UserMention,
		"{username}", c.Username,
		"{server}", c.ServerName,
		"{memberCount}", strconv.Itoa(c.MemberCount),
	)
	return r.Replace(s)
}

// Render builds a Discord embed from the template. A nil template renders to
// an empty embed so callers never have to nil-check stored configs.
func Render(tpl *Template, ctx Context) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{}
	if tpl == nil {
		return e
	}

	e.Title = ctx.Apply(tpl.Title)
	e.Description = ctx.Apply(tpl.Description)
	if tpl.Color != nil {
		e.Color = *tpl.Color
	}
	if tpl.ThumbnailURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: tpl.ThumbnailURL}
	}
	if tpl.ImageURL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: tpl.ImageURL}
	}
	if tpl.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: ctx.Apply(tpl.Footer)}
	}

	fields := tpl.Fields
	if len(fields) > maxFields {
		fields = fields[:maxFields]
	}
	for _, f := range fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   truncate(ctx.Apply(f.Name), maxFieldName),
			Value:  truncate(ctx.Apply(f.Value), maxFieldValue),
			Inline: f.Inline,
		})
	}

	return e
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
