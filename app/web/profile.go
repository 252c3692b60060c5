package web

import (
	"context"
	"fmt"
	"strings"

	"github.com/neoblog/neoblog/app/render"
	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
	"github.com/neoblog/neoblog/app/sanitize"
	"github.com/neoblog/neoblog/app/store"
)

// Profile shows the viewer's own page, or another user's via
// ?username= (or ?user=). Sections a user hides stay withheld from
// other viewers unless the request carries the right ?access_password=.
func (h *Handlers) Profile(ctx context.Context, req *request.Request) *response.Response {
	viewer := h.auth.CurrentUser(req)
	query := req.QueryParams()
	targetName := query["username"]
	if targetName == "" {
		targetName = query["user"]
	}

	target := viewer
	if targetName != "" {
		found, err := h.users.ByUsername(targetName)
		if err != nil {
			return response.ServerError("Internal Server Error: " + err.Error())
		}
		if found == nil {
			return response.NotFound()
		}
		target = found
	}
	if target == nil {
		return response.Redirect("/login")
	}
	return h.renderProfile(req, viewer, target, query["message"])
}

func (h *Handlers) UpdateProfile(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	form := req.FormData()
	displayName := strings.TrimSpace(form["display_name"])
	if displayName == "" {
		displayName = user.Username
	}
	email := strings.TrimSpace(form["email"])
	bio := sanitize.RichText(form["bio"])
	isVIP := form["is_vip"] == "on" || form["is_vip"] == "1"

	if err := h.users.UpdateProfile(user.ID, displayName, bio, email, isVIP); err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	return response.Redirect("/profile?message=Profile+updated")
}

func (h *Handlers) UpdatePrivacy(ctx context.Context, req *request.Request) *response.Response {
	user := h.auth.CurrentUser(req)
	if user == nil {
		return response.Redirect("/login")
	}
	form := req.FormData()
	hidePosts := form["hide_posts"] == "on" || form["hide_posts"] == "1"
	hideFavorites := form["hide_favorites"] == "on" || form["hide_favorites"] == "1"
	accessPassword := form["access_password"]

	if err := h.privacy.Update(user.ID, hidePosts, hideFavorites, accessPassword); err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	return response.Redirect("/profile?message=Privacy+settings+saved")
}

func (h *Handlers) renderProfile(req *request.Request, viewer, target *store.User, message string) *response.Response {
	viewingSelf := viewer != nil && viewer.ID == target.ID
	settings, err := h.privacy.Get(target.ID)
	if err != nil {
		return response.ServerError("Internal Server Error: " + err.Error())
	}

	unlocked := viewingSelf
	if !viewingSelf {
		if attempt := strings.TrimSpace(req.QueryParams()["access_password"]); attempt != "" {
			unlocked, err = h.privacy.VerifyAccessPassword(target.ID, attempt)
			if err != nil {
				return response.ServerError("Internal Server Error: " + err.Error())
			}
		}
	}

	authoredHTML := hiddenNotice("posts")
	if viewingSelf || !settings.HidePosts || unlocked {
		authored, err := h.posts.ListByAuthor(target.ID, 50)
		if err != nil {
			return response.ServerError("Internal Server Error: " + err.Error())
		}
		if !viewingSelf {
			authored = visiblePosts(authored, viewer, req)
		}
		authoredHTML = h.postCards(authored)
	}

	favoritesHTML := hiddenNotice("favorites")
	if viewingSelf || !settings.HideFavorites || unlocked {
		favoriteIDs, err := h.interactions.FavoritePostIDs(target.ID)
		if err != nil {
			return response.ServerError("Internal Server Error: " + err.Error())
		}
		favorites, err := h.posts.ByIDs(favoriteIDs)
		if err != nil {
			return response.ServerError("Internal Server Error: " + err.Error())
		}
		if !viewingSelf {
			favorites = visiblePosts(favorites, viewer, req)
		}
		favoritesHTML = h.postCards(favorites)
	}

	editHTML := render.HTML("")
	privacyHTML := render.HTML("")
	if viewingSelf {
		editHTML = profileEditSection(target)
		privacyHTML = privacySection(settings)
	}

	vipBadge := ""
	if target.IsVIP {
		vipBadge = "VIP"
	}
	pageCtx := render.Context{
		"page_title":            "Profile",
		"page_description":      "Account, posts and favorites.",
		"profile_feedback_html": alertBlock("success", message),
		"username":              target.Username,
		"display_name":          target.DisplayName,
		"bio_html":              render.HTML(sanitize.RichText(target.Bio)),
		"vip_badge":             vipBadge,
		"profile_edit_html":     editHTML,
		"privacy_section_html":  privacyHTML,
		"authored_posts_html":   authoredHTML,
		"favorite_posts_html":   favoritesHTML,
	}
	return h.render.Render("profile.html", mergeContext(pageCtx, h.layoutContext("profile", viewer)))
}

func hiddenNotice(what string) render.HTML {
	return render.HTML(fmt.Sprintf(
		`<div class="alert alert-warning" role="alert">This user hides their %s. Add ?access_password= to the address to view them.</div>`,
		what))
}

// profileEditSection is the owner-only account form; other viewers never see
// the stored email address.
func profileEditSection(user *store.User) render.HTML {
	return render.HTML(fmt.Sprintf(
		`<h2>Edit profile</h2>`+
			`<form method="post" action="/profile">`+
			`<label>Display name<input type="text" name="display_name" value="%s"></label>`+
			`<label>Email<input type="email" name="email" value="%s"></label>`+
			`<label>Bio<textarea name="bio" rows="4">%s</textarea></label>`+
			`<label class="checkbox"><input type="checkbox" name="is_vip"%s> VIP membership</label>`+
			`<button type="submit" class="btn btn-primary">Save profile</button>`+
			`</form>`,
		render.Escape(user.DisplayName), render.Escape(user.Email),
		render.Escape(sanitize.StripTags(user.Bio)), checkedAttr(user.IsVIP)))
}

func privacySection(settings *store.PrivacySettings) render.HTML {
	return render.HTML(fmt.Sprintf(
		`<h2>Privacy</h2>`+
			`<form method="post" action="/profile/privacy">`+
			`<label class="checkbox"><input type="checkbox" name="hide_posts"%s> Hide my posts from my public profile</label>`+
			`<label class="checkbox"><input type="checkbox" name="hide_favorites"%s> Hide my favorites</label>`+
			`<label>Profile access password<input type="password" name="access_password" placeholder="Leave blank to keep current"></label>`+
			`<button type="submit" class="btn btn-outline">Save privacy settings</button>`+
			`</form>`,
		checkedAttr(settings.HidePosts), checkedAttr(settings.HideFavorites)))
}

func checkedAttr(on bool) string {
	if on {
		return " checked"
	}
	return ""
}
