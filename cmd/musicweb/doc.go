// Command musicweb publishes a directory of lossless albums as a static
// download site.
//
// Every immediate subdirectory of the input directory holding at least one
// lossless reference file is an album. For each album musicweb writes, under
// the output directory, one subdirectory per configured format, one archive
// per format, the album's auxiliary files and (unless --no-pages) HTML pages:
//
//	musicweb ~/Music/lossless /srv/www/music
//	musicweb --tui ~/Music/lossless /srv/www/music
//	musicweb check
//	musicweb config init
//
// Re-running against the same output only does the work that is missing.
package main
