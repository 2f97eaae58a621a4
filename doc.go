// Package pdfwatch converts HTML documents, and ZIP archives of HTML
// documents, to PDF using headless Chrome.
//
// # Quick Start
//
// Watch a directory until the context is cancelled:
//
//	w := pdfwatch.NewWatcher(
//	    pdfwatch.WithLogger(pdfwatch.NewLogger(os.Stderr, pdfwatch.LogInfo)),
//	)
//	if err := w.Run(ctx, "/home/me/Downloads/RawHTML", "/home/me/ActiveResumes"); err != nil {
//	    log.Fatal(err)
//	}
//
// Convert a single file without watching:
//
//	d := pdfwatch.NewDispatcher()
//	res := d.ProcessFile(ctx, "resume.html", "out")
//	if res.Err != nil {
//	    log.Fatal(res.Err)
//	}
//	fmt.Println(res.Outputs) // [out/resume.pdf]
//
// # Conversion Pipeline
//
// Each file is routed by its lower-cased extension:
//
//  1. .html is rendered directly to outputDir/<name>.pdf
//  2. .zip has every .html entry extracted to a scratch directory and rendered
//     to outputDir/<entry path>.pdf, keeping the entry's subdirectories
//  3. anything else is skipped
//
// Rendering launches a dedicated Chrome for every document, waits for the load
// event and a quiet network, prepends PrintStylesheet to <head>, and prints a
// US Letter PDF at 65% scale with no margins.
//
// # Concurrency
//
// The watcher handles every event in its own goroutine. Concurrent Chrome
// launches are capped by a LaunchLimiter sized with WithWorkers (see
// ResolvePoolSize); WithWorkers(-1) removes the cap.
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package pdfwatch
