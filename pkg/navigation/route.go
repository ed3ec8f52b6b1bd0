package navigation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// episodeListPrefix is the first segment of an album route.
const episodeListPrefix = "episode-list"

// RouteKind tells group-browsing routes from album routes.
type RouteKind int

const (
	// RouteGroups browses the children of the last ID (the roots if none).
	RouteGroups RouteKind = iota
	// RouteEpisodeList shows the episodes of one album.
	RouteEpisodeList
)

func (k RouteKind) String() string {
	switch k {
	case RouteGroups:
		return "groups"
	case RouteEpisodeList:
		return "episode-list"
	default:
		return fmt.Sprintf("RouteKind(%d)", int(k))
	}
}

// Route is a parsed navigator URL.
type Route struct {
	Kind RouteKind
	IDs  []int64 // group path for RouteGroups, the album ID for RouteEpisodeList
}

// ErrInvalidRoute is returned by ParseRoute for URLs it cannot address.
var ErrInvalidRoute = errors.New("invalid route")

// EpisodeListURL returns the route of one album.
func EpisodeListURL(albumID int64) string {
	return "/" + episodeListPrefix + "/" + strconv.FormatInt(albumID, 10)
}

// ParseRoute reverses Navigator.URL. Empty segments from doubled or
// trailing slashes are ignored.
func ParseRoute(url string) (Route, error) {
	var segments []string
	for _, s := range strings.Split(url, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) > 0 && segments[0] == episodeListPrefix {
		if len(segments) != 2 {
			return Route{}, fmt.Errorf("%w: %q: album route takes exactly one id", ErrInvalidRoute, url)
		}
		id, err := parseID(segments[1])
		if err != nil {
			return Route{}, fmt.Errorf("%w: %q: %v", ErrInvalidRoute, url, err)
		}
		return Route{Kind: RouteEpisodeList, IDs: []int64{id}}, nil
	}

	r := Route{Kind: RouteGroups}
	for _, s := range segments {
		id, err := parseID(s)
		if err != nil {
			return Route{}, fmt.Errorf("%w: %q: %v", ErrInvalidRoute, url, err)
		}
		r.IDs = append(r.IDs, id)
	}
	return r, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("segment %q is not a group id", s)
	}
	return id, nil
}

// ParentID returns the group whose children a RouteGroups route lists, or
// nil for the root listing. For RouteEpisodeList it returns the album.
func (r Route) ParentID() *int64 {
	if len(r.IDs) == 0 {
		return nil
	}
	id := r.IDs[len(r.IDs)-1]
	return &id
}
