// Package ssr implements per-route meta-tag injection into the SPA template.
package ssr

import (
	"net/url"
	"strings"
)

// Meta is the computed set of title/meta values for a page.
type Meta struct {
	Title       string
	Description string
	Keywords    string
	Image       string
}

// Category classifies a request path into a page kind.
type Category string

const (
	CategoryHome    Category = "home"
	CategoryProfile Category = "profile"
	CategoryPost    Category = "post"
	CategorySearch  Category = "search"
	CategoryStatic  Category = "static"
)

// Page is the result of classifying a request path.
type Page struct {
	Category Category
	Slug     string // static pages: first path segment
	Username string // profile pages
	PostID   string // post detail pages
	Query    string // search pages: the q parameter
}

// pageMeta is a static metadata template for a fixed page category.
type pageMeta struct {
	title       string
	description string
	keywords    string
}

// staticPages maps the first path segment of fixed app routes to their
// metadata templates. Any other single-segment path is a profile.
var staticPages = map[string]pageMeta{
	"login":           {"Log in", "Log in to your account.", "login, sign in"},
	"register":        {"Sign up", "Create a free account and join the conversation.", "register, sign up, join"},
	"forgot-password": {"Forgot password", "Request a password reset link.", "password, reset"},
	"reset-password":  {"Reset password", "Choose a new password for your account.", "password, reset"},
	"settings":        {"Settings", "Manage your account, privacy and notification settings.", "settings, account, privacy"},
	"messages":        {"Messages", "Your private conversations.", "messages, chat, inbox"},
	"notifications":   {"Notifications", "Likes, mentions and new followers.", "notifications, activity"},
	"wallet":          {"Wallet", "Your balance, earnings and payout history.", "wallet, earnings, payouts"},
	"subscriptions":   {"Subscriptions", "Creators you subscribe to.", "subscriptions, creators"},
	"bookmarks":       {"Bookmarks", "Posts you saved for later.", "bookmarks, saved"},
	"explore":         {"Explore", "Trending posts, tags and creators.", "explore, trending, discover"},
	"live":            {"Live", "Live streams happening right now.", "live, streaming, broadcast"},
	"business":        {"Business dashboard", "Campaigns, ads and audience insights.", "business, ads, campaigns"},
	"terms":           {"Terms of service", "The rules for using this service.", "terms, conditions, legal"},
	"privacy":         {"Privacy policy", "How your data is collected and used.", "privacy, data, legal"},
}

// Classify determines the page category for a request path. Unrecognized
// single-segment paths are treated as profile pages; anything deeper falls
// back to the home category.
func Classify(path string, query url.Values) Page {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return Page{Category: CategoryHome}
	}

	segs := strings.Split(trimmed, "/")
	first := segs[0]

	switch {
	case first == "post" && len(segs) > 1 && segs[1] != "":
		return Page{Category: CategoryPost, PostID: segs[1]}
	case first == "search":
		return Page{Category: CategorySearch, Query: query.Get("q")}
	}

	if _, ok := staticPages[first]; ok {
		return Page{Category: CategoryStatic, Slug: first}
	}

	if len(segs) == 1 {
		return Page{Category: CategoryProfile, Username: first}
	}

	return Page{Category: CategoryHome}
}
