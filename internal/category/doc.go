// Package category holds the static registry of tournament categories.
//
// Each category key maps to display metadata (name, color, icon,
// description) used by the moderation API. The registry is a soft
// constraint: images carrying an unknown category key are still stored
// and listed, they just render without registry metadata.
package category
