// Package domain contains the core domain entities used by the automation
// service. These types represent the business concepts (platform webhook
// events and their processing state) and are intentionally free of
// infrastructure concerns so they can be shared across packages.
package domain
