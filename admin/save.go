package admin

import (
	"context"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"cubecubic/catalog"
	"cubecubic/config"
	"cubecubic/sentryhelper"
)

// SaveAll persists the catalog according to the save mode and returns the
// serialized document. In download mode the caller hands the bytes to the
// browser; in post mode they are also written to the catalog file.
func (c *Controller) SaveAll(ctx context.Context) ([]byte, error) {
	ctx, span := sentryhelper.StartOperationTransaction(ctx, "catalog.save", string(c.saveMode))
	defer span.Finish()

	if !c.store.Dirty() {
		return nil, catalog.ErrNothingToSave
	}

	var write func([]byte) error
	if c.saveMode == config.SavePost {
		write = c.store.WriteFile
	}

	data, err := c.store.Save(write)
	if err != nil {
		sentryhelper.CaptureException(ctx, err)
		c.logger.WithError(err).Error("Failed to save catalog")
		return nil, err
	}

	c.logger.WithFields(log.Fields{"mode": c.saveMode, "bytes": len(data)}).Info("Catalog saved")
	return data, nil
}

// Export serializes the catalog for download regardless of the dirty flag.
// The download counts as a save.
func (c *Controller) Export() ([]byte, error) {
	return c.store.Save(nil)
}

// ReplaceDocument takes a full catalog body, as posted to /tracks.json, writes
// it to disk and swaps it in.
func (c *Controller) ReplaceDocument(ctx context.Context, body []byte) error {
	ctx, span := sentryhelper.StartOperationTransaction(ctx, "catalog.replace", "")
	defer span.Finish()
	sentryhelper.AddBreadcrumb(ctx, &sentry.Breadcrumb{
		Category: "catalog",
		Message:  "Catalog document posted",
		Data:     map[string]interface{}{"bytes": len(body)},
	})

	doc, err := catalog.Deserialize(body)
	if err != nil {
		return &catalog.ValidationError{Field: "document", Err: err}
	}

	data, err := catalog.Serialize(doc)
	if err != nil {
		return &catalog.PersistenceError{Op: "serialize", Err: err}
	}
	if err := c.store.WriteFile(data); err != nil {
		sentryhelper.CaptureException(ctx, err)
		c.logger.WithError(err).Error("Failed to write posted catalog")
		return err
	}

	c.store.Replace(doc)
	c.logger.WithFields(log.Fields{
		"albums": len(doc.Albums),
		"tracks": len(doc.Tracks),
	}).Info("Catalog replaced")
	return nil
}

// Reload re-reads the catalog file. It refuses to drop unsaved edits.
func (c *Controller) Reload() error {
	return c.store.LoadIfClean()
}
