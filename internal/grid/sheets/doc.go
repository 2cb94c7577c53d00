// Package sheets implements grid.Transport over the Google Sheets API.
//
// Reads ask for formatted values, so every cell comes back as the string a
// user would see. Literal writes use the RAW input option and interpreted
// writes use USER_ENTERED, which lets the service turn "30" into a number
// and "TRUE" into a boolean. Appends insert new rows after the table.
//
// A tab that has never been written reads as empty. A tab that does not
// exist fails with the service's error, wrapped.
package sheets
