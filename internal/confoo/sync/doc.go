// Package sync replaces the local schedule store with a fresh scrape of the
// conference website.
//
// # Overview
//
// A full sync runs three stages over one browser tab, strictly in order:
//
//  1. Grid: load the schedule page and merge its slot fragments by slug.
//  2. Details: visit every session page for the abstract, language and level,
//     collecting speaker company/bio hints on the way.
//  3. Speakers: visit every speaker page and resolve each field against the
//     hints and the grid display name.
//
// # Architecture
//
//	confoo.ca (chromedp tab)
//	     ├── /en/<year>/schedule        → GridFragment, SpecialEvent
//	     ├── /en/<year>/session/<slug>  → SessionDetail, speaker hints
//	     └── /en/speaker/<slug>         → SpeakerProfile
//	                                      ↓
//	                                   Syncer
//	                                      ↓
//	                                 db.Batch (commit every BatchSize items)
//	                                      ↓
//	                                  SQLite store
//
// The store is cleared inside the first batch, so a run that fails before
// its first commit leaves the previous dataset in place. Readers that must
// never see a partially rebuilt store read the exported snapshot instead.
//
// # Usage
//
//	database, err := db.Open(cfg.DBPath)
//	if err != nil {
//	    return err
//	}
//	defer database.Close()
//
//	browser, err := extract.NewChromeBrowser(ctx, extract.ChromeOptions{Headless: true})
//	if err != nil {
//	    return err
//	}
//	defer browser.Close()
//
//	syncer := sync.New(database, extract.NewAdapter(browser, extract.DefaultSite()), sync.Config{})
//	result, err := syncer.FullSync(ctx)
//
// # Error Handling
//
// Per-item failures are logged and counted but never abort the run:
//
//   - A failed session page stores the session without detail fields
//   - A failed speaker page stores the speaker from hints and the grid name
//   - Store errors and context cancellation are returned to the caller
//
// When the grid yields no sessions the run stops with ErrEmptyGrid before
// the store is touched.
package sync
