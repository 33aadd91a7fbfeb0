// Package blockload hydrates server-rendered HTML documents made of
// self-contained blocks.
//
// A page is a tree of elements. Some of them are blocks: elements matched
// by a CSS selector registered in the Registry. Each selector has a
// Descriptor naming a stylesheet and a behavior script under a common
// location. Hydration walks the document, binds every match to its
// selector, and activates it: the stylesheet is attached to the head once
// per descriptor, the behavior module is loaded at most once per
// descriptor, and the behavior is initialized on the element, which is
// then marked with the "is-Loaded" class.
//
// # Configuration
//
// Blocks are configured in YAML. Mapping order is scan order.
//
//	lazyMargin: 1000px 0px
//	canonicalDomain: https://www.example.com
//	blocks:
//	  .header:
//	    location: /blocks/header/
//	    styles: header.css
//	    scripts: header.js
//	  .carousel:
//	    location: /blocks/carousel/
//	    styles: carousel.css
//	    scripts: carousel.js
//	    lazy: true
//
// # Behaviors
//
// Script paths are resolved to Behaviors by a Loader. The default loader
// is a ModuleTable:
//
//	modules := blockload.NewModuleTable().
//	    Add("/blocks/header/header.js", header.Behavior{}).
//	    Register("/blocks/carousel/carousel.js", carousel.New)
//
// A failed load is terminal for its descriptor: matches stay unmarked and
// the load is never retried during the page's lifetime.
//
// # Lazy blocks
//
// Lazy matches are handed to a proximity observer (see lib/viewport) and
// activated once they come within LazyMargin of the viewport. Each
// element fires at most once.
//
// # Fragments
//
// Elements matching FragmentSelector are placeholders for shared markup.
// The path authored inside the placeholder is fetched with ".plain.html"
// appended, inlined, and hydrated in turn, so fragments may contain
// blocks and further fragments.
//
// # Usage
//
//	eng, err := blockload.New(cfg,
//	    blockload.WithLoader(modules),
//	    blockload.WithOrigin(origin),
//	    blockload.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	if err := eng.Hydrate(doc); err != nil {
//	    return err
//	}
//	if err := eng.Settle(ctx); err != nil {
//	    return err
//	}
//	return blockload.RenderDocument(doc).Render(ctx, w)
//
// All tree mutation happens on one goroutine per engine. Behaviors that
// need to wait use Helpers.Async and finish their work in the returned
// continuation.
package blockload
