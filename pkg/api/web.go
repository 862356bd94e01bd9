package api

var tmpl = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>King Saver</title>
    <style>
        :root { --bg: #121212; --card: #1e1e1e; --text: #e0e0e0; --accent: #e91e63; }
        body { background: var(--bg); color: var(--text); font-family: system-ui, sans-serif; display: grid; place-items: start center; min-height: 100vh; margin: 0; padding-top: 4rem; }
        .container { background: var(--card); padding: 2rem; border-radius: 12px; box-shadow: 0 10px 30px rgba(0,0,0,0.5); width: 90%; max-width: 540px; }
        h1 { margin: 0 0 1rem; font-size: 1.5rem; color: var(--accent); text-align: center; }
        input { width: 100%; padding: 12px; margin: 10px 0; border: 1px solid #333; border-radius: 6px; background: #252525; color: #fff; box-sizing: border-box; outline: none; }
        input:focus { border-color: var(--accent); }
        button { width: 100%; padding: 12px; border: none; border-radius: 6px; background: var(--accent); color: white; font-weight: bold; cursor: pointer; }
        button:disabled { background: #555; cursor: not-allowed; }
        #result { margin-top: 20px; line-height: 1.6; word-break: break-word; }
        .meta { display: flex; gap: 12px; align-items: center; margin-bottom: 12px; }
        .meta img { width: 120px; border-radius: 6px; }
        .fmt { display: flex; justify-content: space-between; align-items: center; border: 1px solid #333; border-radius: 6px; padding: 8px 12px; margin: 6px 0; }
        .fmt a { color: #4ea8de; text-decoration: none; border: 1px solid #4ea8de; padding: 4px 10px; border-radius: 4px; font-size: 0.9rem; }
        .fmt a:hover { background: #4ea8de; color: #fff; }
        .tag { font-size: 0.75rem; color: #999; margin-left: 8px; }
        .error { color: var(--accent); font-size: 0.9rem; }
    </style>
</head>
<body>
    <div class="container">
        <h1>King Saver</h1>
        <form id="infoForm">
            <input type="url" id="url" placeholder="Paste a video URL..." required>
            <button type="submit" id="btn">Get Formats</button>
        </form>
        <div id="result"></div>
    </div>

    <script>
        const f = document.getElementById('infoForm'),
              r = document.getElementById('result'),
              b = document.getElementById('btn');

        f.onsubmit = async (e) => {
            e.preventDefault();
            b.disabled = true;
            r.innerHTML = 'Fetching...';
            const url = document.getElementById('url').value;

            try {
                const resp = await fetch('/api/info', {
                    method: 'POST',
                    headers: {'Content-Type': 'application/json'},
                    body: JSON.stringify({url})
                });
                const data = await resp.json();
                if (!resp.ok) throw new Error(data.error || 'Request failed');

                let html = '<div class="meta">';
                if (data.thumbnail) html += '<img src="' + data.thumbnail + '" alt="">';
                html += '<div><b>' + data.title + '</b><br><span class="tag">' +
                        (data.author ? data.author.name : '') + ' &middot; ' + data.duration + 's</span></div></div>';

                for (const fmt of data.formats) {
                    const dl = '/api/download?url=' + encodeURIComponent(url) + '&itag=' + encodeURIComponent(fmt.itag);
                    html += '<div class="fmt"><span>' + fmt.qualityLabel +
                            '<span class="tag">' + fmt.container + ' / ' + fmt.type +
                            (fmt.needsMerge ? ' +merge' : '') + '</span></span>' +
                            '<a href="' + dl + '">Download</a></div>';
                }
                r.innerHTML = html;
            } catch (err) {
                r.innerHTML = '<div class="error">' + err.message + '</div>';
            } finally {
                b.disabled = false;
            }
        };
    </script>
</body>
</html>
`
