// Package media lists the audio files under the media directory and reads
// their embedded tags, so the admin can see which files no track uses yet.
package media

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhowden/tag"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cubecubic/models"
)

var audioExtensions = map[string]bool{
	".mp3": true,
	".m4a": true,
	".ogg": true,
	".wav": true,
}

func IsAudioFile(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}

// File is one audio file found on disk. Filename is relative to the media
// directory with forward slashes, matching Track.Filename.
type File struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Lyrics   string `json:"lyrics,omitempty"`
	Used     bool   `json:"used"`
}

// Scan walks dir and reads tags from every audio file. Files whose tags
// cannot be read are still listed.
func Scan(ctx context.Context, dir string) ([]File, error) {
	logger := log.WithFields(log.Fields{"module": "media", "dir": dir})

	var files []File
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if d.IsDir() || !IsAudioFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, File{Filename: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := readTags(filepath.Join(dir, filepath.FromSlash(files[i].Filename)), &files[i]); err != nil {
				logger.WithError(err).WithField("file", files[i].Filename).Debug("No readable tags")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}

func readTags(p string, f *File) error {
	file, err := os.Open(p)
	if err != nil {
		return err
	}
	defer file.Close()

	m, err := tag.ReadFrom(file)
	if err != nil {
		return err
	}
	f.Title = strings.TrimSpace(m.Title())
	f.Artist = strings.TrimSpace(m.Artist())
	f.Album = strings.TrimSpace(m.Album())
	f.Lyrics = m.Lyrics()
	return nil
}

// MarkUsed flags files referenced by a track's filename.
func MarkUsed(files []File, tracks []models.Track) {
	used := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		if name := strings.TrimSpace(t.Filename); name != "" {
			used[path.Clean(name)] = true
		}
	}
	for i := range files {
		files[i].Used = used[files[i].Filename]
	}
}

// TitleFor is the tag title, or the file name without extension.
func (f File) TitleFor() string {
	if f.Title != "" {
		return f.Title
	}
	base := path.Base(f.Filename)
	return strings.TrimSuffix(base, path.Ext(base))
}
