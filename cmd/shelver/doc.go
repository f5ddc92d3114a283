// Command shelver moves staged media files into a date-partitioned archive
// tree based on codes embedded in their filenames.
package main
