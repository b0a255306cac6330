package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/comicshelf/comicshelf/internal/api/domain"
)

// decodeJSON reads a JSON request body into dst. Unknown fields are
// tolerated; a missing body decodes to the zero value so validation can
// produce a domain error instead of a parse error.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return nil
}

// userView is the sanitized user representation. The password hash never
// leaves the service layer.
type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Avatar    string    `json:"avatar"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserView(u domain.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Address:   u.Address,
		Avatar:    u.AvatarURL,
		Role:      u.Role,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}

// loginUserView is the trimmed user block attached to a login response.
type loginUserView struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

// progressView is the wire shape shared by reading-progress and favorite
// entries. LastReadAt is a pointer so a never-read favorite serializes as
// null.
type progressView struct {
	Slug            string     `json:"slug"`
	LastReadChapter *string    `json:"lastReadChapter"`
	LastReadAt      *time.Time `json:"lastReadAt"`
}

func newProgressView(p domain.ReadingProgress) progressView {
	chapter := p.LastReadChapter
	at := p.LastReadAt
	return progressView{
		Slug:            p.Slug,
		LastReadChapter: &chapter,
		LastReadAt:      &at,
	}
}

func newFavoriteView(f domain.Favorite) progressView {
	return progressView{
		Slug:            f.Slug,
		LastReadChapter: f.LastReadChapter,
		LastReadAt:      f.LastReadAt,
	}
}
