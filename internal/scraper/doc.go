// Package scraper fetches NYC event listings from Luma, Eventbrite, Meetup and
// GarysGuide.
//
// Each site is an Adapter that knows its page URLs and how to turn one page
// into events. A Collector fetches every page of every adapter on a bounded
// worker pool and concatenates the results in adapter order, then URL order,
// so output does not depend on which request finished first. Failed pages are
// logged and contribute no events.
package scraper
