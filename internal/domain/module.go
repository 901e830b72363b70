package domain

import "strings"

// Module identifies a functional area of the staff application.
type Module string

const (
	ModuleDashboard     Module = "dashboard"
	ModuleBeds          Module = "beds"
	ModuleAdmissions    Module = "admissions"
	ModulePatients      Module = "patients"
	ModuleDoctors       Module = "doctors"
	ModuleNurses        Module = "nurses"
	ModuleAppointments  Module = "appointments"
	ModuleFacilities    Module = "facilities"
	ModuleBilling       Module = "billing"
	ModuleReports       Module = "reports"
	ModuleNotifications Module = "notifications"
	ModuleSettings      Module = "settings"
	ModuleTasks         Module = "tasks"
	ModuleLab           Module = "lab"
	ModulePharmacy      Module = "pharmacy"
	ModuleVitals        Module = "vitals"
)

// AllModules lists the closed module set.
var AllModules = []Module{
	ModuleDashboard,
	ModuleBeds,
	ModuleAdmissions,
	ModulePatients,
	ModuleDoctors,
	ModuleNurses,
	ModuleAppointments,
	ModuleFacilities,
	ModuleBilling,
	ModuleReports,
	ModuleNotifications,
	ModuleSettings,
	ModuleTasks,
	ModuleLab,
	ModulePharmacy,
	ModuleVitals,
}

// ParseModule converts user input into a Module.
func ParseModule(raw string) (Module, bool) {
	candidate := Module(strings.ToLower(strings.TrimSpace(raw)))
	for _, module := range AllModules {
		if module == candidate {
			return module, true
		}
	}
	return "", false
}

// Feature is a CRUD-style action kind within a module.
type Feature string

const (
	FeatureView   Feature = "view"
	FeatureCreate Feature = "create"
	FeatureEdit   Feature = "edit"
	FeatureDelete Feature = "delete"
)

// AllFeatures lists the closed feature set.
var AllFeatures = []Feature{FeatureView, FeatureCreate, FeatureEdit, FeatureDelete}

// NormalizeFeature folds case and whitespace without validating membership.
func NormalizeFeature(raw string) Feature {
	return Feature(strings.ToLower(strings.TrimSpace(raw)))
}

// ParseFeature converts user input into a known Feature.
func ParseFeature(raw string) (Feature, bool) {
	candidate := NormalizeFeature(raw)
	for _, feature := range AllFeatures {
		if feature == candidate {
			return feature, true
		}
	}
	return "", false
}
