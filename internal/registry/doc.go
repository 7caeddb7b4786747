// Package registry fetches the ROM's official device registry, an XML
// document whose <project name="..."> elements list every device repository,
// and matches a requested device against it.
package registry
