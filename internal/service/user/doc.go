// Package user manages console accounts: registration, login and profiles.
package user
