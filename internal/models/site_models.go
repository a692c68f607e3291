package models

// SiteStatus is what the automation browser tab currently shows.
type SiteStatus struct {
	URL      string
	OnSite   bool
	LoggedIn bool
}
