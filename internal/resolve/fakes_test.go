package resolve

import (
	"context"
	"fmt"

	"animedb/internal/catalog"
	"animedb/internal/catalog/anilist"
	"animedb/internal/catalog/mal"
)

type fakeMAL struct {
	byID      map[int]mal.Anime
	results   []mal.Anime
	searchErr error
	searches  []string
	lookups   []int
}

func (f *fakeMAL) Search(_ context.Context, query string) ([]mal.Anime, error) {
	f.searches = append(f.searches, query)
	return f.results, f.searchErr
}

func (f *fakeMAL) GetAnime(_ context.Context, id int) (*mal.Anime, error) {
	f.lookups = append(f.lookups, id)
	anime, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("anime %d: %w", id, catalog.ErrNotFound)
	}
	return &anime, nil
}

type fakeAniList struct {
	byMAL     map[int]anilist.Media
	results   []anilist.Media
	searchErr error
	searches  []string
	lookups   []int
}

func (f *fakeAniList) Search(_ context.Context, query string) ([]anilist.Media, error) {
	f.searches = append(f.searches, query)
	return f.results, f.searchErr
}

func (f *fakeAniList) ByMALID(_ context.Context, malID int) (*anilist.Media, error) {
	f.lookups = append(f.lookups, malID)
	media, ok := f.byMAL[malID]
	if !ok {
		return nil, fmt.Errorf("idMal %d: %w", malID, catalog.ErrNotFound)
	}
	return &media, nil
}

type fakeCovers struct {
	names []string
}

func (f *fakeCovers) Schedule(url, name string) string {
	if url == "" {
		return ""
	}
	f.names = append(f.names, name)
	return "/images/" + name
}

func malAnime(id int, title string, year int) mal.Anime {
	a := mal.Anime{MalID: id, Title: title}
	if year > 0 {
		a.Year = &year
	}
	a.Images.JPG.LargeImageURL = fmt.Sprintf("https://cdn.example.test/mal/%d.jpg", id)
	return a
}

func aniMedia(id int, romaji string, year int) anilist.Media {
	m := anilist.Media{ID: id}
	m.Title.Romaji = romaji
	if year > 0 {
		m.StartDate.Year = &year
	}
	m.CoverImage.Large = fmt.Sprintf("https://cdn.example.test/anilist/%d.jpg", id)
	return m
}
