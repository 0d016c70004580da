// Package models contains GORM persistence models. They are kept separate from
// the domain types so the domain stays free of ORM tags; repositories convert
// between the two.
package models
