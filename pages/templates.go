package pages

var Browse = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>cubecubic</title>
	<link rel="stylesheet" href="/css/style.css">
</head>
<body>
	<header id="header-player" class="header-player{{if .Player.Playing}} playing{{end}}">
		<img id="player-cover" src="{{.Player.Cover}}" alt="">
		<div class="player-meta">
			<div id="player-title">{{if .Player.Title}}{{.Player.Title}}{{else}}Choose a track{{end}}</div>
			<div id="player-artist">{{.Player.Artist}}</div>
		</div>
		<form method="post" action="/browse/player" class="player-controls">
			<button type="submit" name="action" value="prev" id="prev-btn">⏮</button>
			<button type="submit" name="action" value="toggle" id="play-btn">{{if .Player.Playing}}❚❚{{else}}▶{{end}}</button>
			<button type="submit" name="action" value="next" id="next-btn">⏭</button>
		</form>
		<div class="progress">
			<span id="time-elapsed">{{.Player.Elapsed}}</span>
			<div class="bar"><div class="fill" style="width: {{pct .Player.Progress}}"></div></div>
			<span id="time-total">{{.Player.Total}}</span>
		</div>
		<form method="post" action="/browse/player" class="volume">
			<input type="hidden" name="action" value="volume">
			<input type="range" name="volume" min="0" max="100" value="{{.Player.Volume}}">
			<button type="submit">Set</button>
		</form>
		{{if .Player.Stream}}<audio id="audio" src="{{.Player.Stream}}" data-state="{{.Player.State}}" preload="metadata"></audio>{{end}}
	</header>

	{{range .Toasts}}<div class="toast visible" role="status">{{.}}</div>{{end}}

	<aside id="album-list">
		<a class="album-list-button{{if not .SelectedAlbum}} selected{{end}}" href="/browse">All tracks</a>
		{{range .Menu}}
		{{$group := .ID}}
		<div class="album-group{{if .Open}} open{{end}}" data-album-id="{{.ID}}">
			<a class="album-list-button{{if .Selected}} selected{{end}}" href="/browse?album={{.ID}}&amp;open={{.ID}}">
				<span>{{.Name}}</span>
				<span class="track-count">({{.Count}})</span>
			</a>
			{{if .Open}}
			<div class="sub-albums">
				{{range .Children}}
				<a class="sub-album{{if .Selected}} selected{{end}}" data-album-id="{{.ID}}" href="/browse?album={{$group}}&amp;sub={{.ID}}&amp;open={{$group}}">{{.Name}} <span class="track-count">({{.Count}})</span></a>
				{{end}}
			</div>
			{{end}}
		</div>
		{{end}}
	</aside>

	<main>
		<form method="get" action="/browse" class="filters">
			<input type="search" id="global-search" name="q" value="{{.Query}}" placeholder="Search">
			<input type="hidden" name="album" value="{{.SelectedAlbum}}">
			{{if .SubAlbums}}
			<select id="subalbum-select" name="sub">
				<option value="">All sub-albums</option>
				{{range .SubAlbums}}<option value="{{.ID}}"{{if eq .ID $.SelectedSub}} selected{{end}}>{{.Label}}</option>{{end}}
			</select>
			{{end}}
			<label><input type="checkbox" name="liked" value="1"{{if .LikedOnly}} checked{{end}}> Liked</label>
			{{if .Playlists}}
			<select name="playlist">
				<option value="">No playlist</option>
				{{range .Playlists}}<option value="{{.ID}}"{{if eq .ID $.PlaylistID}} selected{{end}}>{{.Name}}</option>{{end}}
			</select>
			{{end}}
			<button type="submit">Apply</button>
		</form>

		<div id="tracks">
		{{if .LoadError}}
			<div class="muted load-error">Could not load tracks</div>
		{{else if not .Cards}}
			<div class="muted empty">No tracks found</div>
		{{else}}
			{{range .Cards}}
			<div class="card{{if .Playing}} playing-track{{end}}" data-track-id="{{.ID}}">
				<img class="track-cover" src="{{.Cover}}" alt="{{.Title}}">
				<div class="track-info">
					<h4>{{.Title}}</h4>
					<div class="track-album">{{.AlbumName}}</div>
				</div>
				<div class="track-actions">
					<form method="post" action="/browse/player">
						<input type="hidden" name="action" value="play">
						<input type="hidden" name="index" value="{{.Index}}">
						<button type="submit" class="play-button">▶</button>
					</form>
					{{if .HasLyrics}}
					<details class="lyrics">
						<summary class="btn-has-lyrics">Lyrics</summary>
						<pre>{{.Lyrics}}</pre>
					</details>
					{{end}}
					<form method="post" action="/browse/like">
						<input type="hidden" name="track" value="{{.ID}}">
						<button type="submit" class="like-button{{if .Liked}} liked{{end}}">♥ <span class="like-count">{{.Likes}}</span></button>
					</form>
					{{if .CanDownload}}
					<a class="download-button" href="{{.Stream}}" download="{{.DownloadName}}">Download</a>
					{{else}}
					<button type="button" class="download-button" disabled>Download</button>
					{{end}}
				</div>
			</div>
			{{end}}
		{{end}}
		</div>
	</main>
	<script src="/js/player.js"></script>
</body>
</html>`

var Admin = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>cubecubic admin</title>
	<link rel="stylesheet" href="/css/admin.css">
</head>
<body>
{{if not .LoggedIn}}
	<form id="login-form" method="post" action="/admin/login">
		<h1>Admin</h1>
		{{if .LoginError}}<div class="error">{{.LoginError}}</div>{{end}}
		<input type="password" name="password" placeholder="Password" autofocus>
		<button type="submit">Log in</button>
	</form>
{{else}}
	<header>
		<h1>Catalog</h1>
		<form method="post" action="/api/admin/save">
			<button type="submit" id="btn-save-all" class="save-btn{{if .Dirty}} blinking{{end}}"{{if not .Dirty}} disabled{{end}}>Save ({{.SaveMode}})</button>
		</form>
		<a href="/api/admin/export">Download tracks.json</a>
		<form method="post" action="/admin/logout"><button type="submit">Log out</button></form>
		{{if .Dirty}}<span id="unsaved" class="unsaved">Unsaved changes</span>{{end}}
	</header>
	{{if .Message}}<div class="message">{{.Message}}</div>{{end}}
	{{if .Error}}<div class="error">{{.Error}}</div>{{end}}

	<section id="albums">
		<h2>Albums</h2>
		<form method="post" action="/api/admin/albums" class="create-album">
			<input type="text" name="name" placeholder="Album name">
			<select name="parentId">
				<option value="">Top level</option>
				{{range .AlbumOptions}}<option value="{{.ID}}">{{.Label}}</option>{{end}}
			</select>
			<button type="submit">Create album</button>
		</form>
		{{range .Albums}}
		<div class="item album-item" data-album-id="{{.ID}}">
			<form method="post" action="/api/admin/albums/{{.ID}}" class="edit-album">
				<input type="text" name="name" value="{{.Name}}">
				<select name="parentId">
					<option value="">Top level</option>
					{{$parent := .ParentID}}
					{{range .ParentChoices}}<option value="{{.ID}}"{{if eq .ID $parent}} selected{{end}}>{{.Label}}</option>{{end}}
				</select>
				<span class="muted">{{.Count}} tracks</span>
				<button type="submit">Save</button>
			</form>
			<form method="post" action="/api/admin/albums/{{.ID}}/delete">
				<button type="submit">Delete</button>
			</form>
		</div>
		{{end}}
	</section>

	<section id="tracks">
		<h2>Tracks</h2>
		<form method="post" action="/api/admin/tracks" id="add-form">
			<input type="text" name="title" placeholder="Title">
			<input type="text" name="artist" placeholder="Artist">
			<textarea name="lyrics" placeholder="Lyrics"></textarea>
			<select name="albumId">
				<option value="">No album</option>
				{{range .AlbumOptions}}<option value="{{.ID}}">{{.Label}}</option>{{end}}
			</select>
			<input type="text" name="audioUrl" placeholder="Audio URL">
			<input type="text" name="filename" placeholder="Media file">
			<input type="text" name="coverUrl" placeholder="Cover URL">
			<button type="submit">Add track</button>
		</form>
		<form method="get" action="/admin">
			<input type="search" name="q" value="{{.Query}}" placeholder="Search tracks">
		</form>
		{{if not .Tracks}}
		<div class="muted">{{if .Query}}No tracks match your search{{else}}No tracks{{end}}</div>
		{{end}}
		{{range .Tracks}}
		<div class="item track-item" data-track-id="{{.Track.ID}}">
			<div class="meta">
				<strong>{{if .Track.Title}}{{.Track.Title}}{{else}}Untitled{{end}}</strong>
				<div class="muted">{{.Track.Artist}}</div>
				<div class="muted">album: {{if .AlbumName}}{{.AlbumName}}{{else}}(no album){{end}}</div>
			</div>
			<form method="post" action="/api/admin/tracks/{{.Track.ID}}" class="edit-track">
				<input type="text" name="title" value="{{.Track.Title}}">
				<input type="text" name="artist" value="{{.Track.Artist}}">
				<textarea name="lyrics">{{.Track.Lyrics}}</textarea>
				{{$album := .Track.AlbumID}}
				<select name="albumId">
					<option value="">No album</option>
					{{range $.AlbumOptions}}<option value="{{.ID}}"{{if eq .ID $album}} selected{{end}}>{{.Label}}</option>{{end}}
				</select>
				<input type="text" name="audioUrl" value="{{.Track.AudioURL}}">
				<input type="text" name="filename" value="{{.Track.Filename}}">
				<input type="text" name="coverUrl" value="{{.Track.CoverURL}}">
				<button type="submit">Save</button>
			</form>
			<form method="post" action="/api/admin/tracks/{{.Track.ID}}/delete">
				<button type="submit">Delete</button>
			</form>
		</div>
		{{end}}
	</section>
{{end}}
</body>
</html>`
